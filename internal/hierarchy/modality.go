package hierarchy

import (
	"sort"
	"sync"
)

// ModalityKind names the concrete modality variants.
type ModalityKind string

const (
	KindRecordedAudio      ModalityKind = "recorded_audio"
	KindRecordedUltrasound ModalityKind = "recorded_ultrasound"
	KindSpline             ModalityKind = "spline"
	KindContour            ModalityKind = "contour"
	KindDerivedSeries      ModalityKind = "derived_series"
)

// ModalityData holds one synchronized stream as a row-major numeric array.
// The axis order is fixed: time first, then a coordinate/channel/confidence
// axis when present, then a spatial-sample axis when present. The time vector
// runs parallel to the time axis: one timestamp per sample.
type ModalityData struct {
	values     []float64
	shape      []int
	timeVector []float64
	timeOffset float64
}

// NewModalityData builds a data record. Slices are copied. Shape consistency
// is deliberately not checked here: the check belongs to the insertion point
// (Source.AddModality), so a generator can assemble data incrementally but a
// malformed result can never enter the hierarchy.
func NewModalityData(values []float64, shape []int, timeVector []float64, timeOffset float64) *ModalityData {
	data := &ModalityData{
		values:     make([]float64, len(values)),
		shape:      make([]int, len(shape)),
		timeVector: make([]float64, len(timeVector)),
		timeOffset: timeOffset,
	}
	copy(data.values, values)
	copy(data.shape, shape)
	copy(data.timeVector, timeVector)
	return data
}

// Shape returns a copy of the array dimensions, time axis first.
func (d *ModalityData) Shape() []int {
	shape := make([]int, len(d.shape))
	copy(shape, d.shape)
	return shape
}

// TimeLength returns the length of the time axis.
func (d *ModalityData) TimeLength() int {
	if len(d.shape) == 0 {
		return 0
	}
	return d.shape[0]
}

// Values returns a copy of the flattened sample array.
func (d *ModalityData) Values() []float64 {
	values := make([]float64, len(d.values))
	copy(values, d.values)
	return values
}

// TimeVector returns a copy of the per-sample timestamps.
func (d *ModalityData) TimeVector() []float64 {
	vector := make([]float64, len(d.timeVector))
	copy(vector, d.timeVector)
	return vector
}

// TimeOffset returns the stream's offset from the trial's reference clock.
func (d *ModalityData) TimeOffset() float64 { return d.timeOffset }

// elementCount returns the product of the dimensions.
func (d *ModalityData) elementCount() int {
	if len(d.shape) == 0 {
		return 0
	}
	count := 1
	for _, dim := range d.shape {
		count *= dim
	}
	return count
}

// Modality is one synchronized data stream plus its annotations. Concrete
// variants are flat specializations sharing the modalityBase behavior; there
// is no deeper inheritance.
type Modality interface {
	Name() string
	Kind() ModalityKind
	// Recorded reports whether the stream was captured by a device (true) or
	// derived by a generation step (false).
	Recorded() bool
	Data() *ModalityData

	AddAnnotation(annotation *Annotation) error
	Annotation(name string) (*Annotation, bool)
	AnnotationNames() []string
}

// modalityBase carries the shared name/data/annotation behavior. Annotation
// access and data access share one addressing scheme: both hang off the
// modality name within the owning source.
type modalityBase struct {
	name     string
	kind     ModalityKind
	recorded bool
	data     *ModalityData

	mu          sync.Mutex
	annotations map[string]*Annotation
}

func (m *modalityBase) Name() string       { return m.name }
func (m *modalityBase) Kind() ModalityKind { return m.kind }
func (m *modalityBase) Recorded() bool     { return m.recorded }
func (m *modalityBase) Data() *ModalityData {
	return m.data
}

func (m *modalityBase) AddAnnotation(annotation *Annotation) error {
	if annotation == nil || annotation.name == "" {
		return &DuplicateKeyError{Container: "modality " + m.name + " annotations", Key: ""}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.annotations[annotation.name]; exists {
		return &DuplicateKeyError{Container: "modality " + m.name + " annotations", Key: annotation.name}
	}
	if m.annotations == nil {
		m.annotations = make(map[string]*Annotation)
	}
	m.annotations[annotation.name] = annotation
	return nil
}

func (m *modalityBase) Annotation(name string) (*Annotation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	annotation, ok := m.annotations[name]
	return annotation, ok
}

func (m *modalityBase) AnnotationNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.annotations))
	for name := range m.annotations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordedAudio is a captured audio stream.
type RecordedAudio struct {
	modalityBase
	samplingRate float64
}

// NewRecordedAudio builds an audio modality with its sampling rate in Hz.
func NewRecordedAudio(name string, data *ModalityData, samplingRate float64) *RecordedAudio {
	return &RecordedAudio{
		modalityBase: modalityBase{name: name, kind: KindRecordedAudio, recorded: true, data: data},
		samplingRate: samplingRate,
	}
}

// SamplingRate returns the capture rate in Hz.
func (m *RecordedAudio) SamplingRate() float64 { return m.samplingRate }

// RecordedUltrasound is a captured ultrasound stream.
type RecordedUltrasound struct {
	modalityBase
	framesPerSecond float64
}

// NewRecordedUltrasound builds an ultrasound modality with its frame rate.
func NewRecordedUltrasound(name string, data *ModalityData, framesPerSecond float64) *RecordedUltrasound {
	return &RecordedUltrasound{
		modalityBase: modalityBase{name: name, kind: KindRecordedUltrasound, recorded: true, data: data},
		framesPerSecond: framesPerSecond,
	}
}

// FramesPerSecond returns the capture frame rate.
func (m *RecordedUltrasound) FramesPerSecond() float64 { return m.framesPerSecond }

// Spline is a derived tongue-spline stream produced by a generation step.
type Spline struct {
	modalityBase
	generationKind string
	fingerprint    string
}

// NewSpline builds a derived spline modality. The generation kind and
// parameter fingerprint record provenance for manifest bookkeeping.
func NewSpline(name string, data *ModalityData, generationKind, paramFingerprint string) *Spline {
	return &Spline{
		modalityBase:   modalityBase{name: name, kind: KindSpline, recorded: false, data: data},
		generationKind: generationKind,
		fingerprint:    paramFingerprint,
	}
}

// GenerationKind returns the derived-data kind that produced this spline.
func (m *Spline) GenerationKind() string { return m.generationKind }

// Fingerprint returns the parameter fingerprint of the generation request.
func (m *Spline) Fingerprint() string { return m.fingerprint }

// DerivedSeries is a derived one-dimensional time series, such as the pixel
// difference between consecutive ultrasound frames.
type DerivedSeries struct {
	modalityBase
	generationKind string
	fingerprint    string
}

// NewDerivedSeries builds a derived time-series modality.
func NewDerivedSeries(name string, data *ModalityData, generationKind, paramFingerprint string) *DerivedSeries {
	return &DerivedSeries{
		modalityBase:   modalityBase{name: name, kind: KindDerivedSeries, recorded: false, data: data},
		generationKind: generationKind,
		fingerprint:    paramFingerprint,
	}
}

// GenerationKind returns the derived-data kind that produced this series.
func (m *DerivedSeries) GenerationKind() string { return m.generationKind }

// Fingerprint returns the parameter fingerprint of the generation request.
func (m *DerivedSeries) Fingerprint() string { return m.fingerprint }

// Contour is a derived contour stream produced by a generation step.
type Contour struct {
	modalityBase
	generationKind string
	fingerprint    string
}

// NewContour builds a derived contour modality.
func NewContour(name string, data *ModalityData, generationKind, paramFingerprint string) *Contour {
	return &Contour{
		modalityBase:   modalityBase{name: name, kind: KindContour, recorded: false, data: data},
		generationKind: generationKind,
		fingerprint:    paramFingerprint,
	}
}

// GenerationKind returns the derived-data kind that produced this contour.
func (m *Contour) GenerationKind() string { return m.generationKind }

// Fingerprint returns the parameter fingerprint of the generation request.
func (m *Contour) Fingerprint() string { return m.fingerprint }
