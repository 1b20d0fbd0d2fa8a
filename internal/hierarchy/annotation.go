package hierarchy

// AnnotationAnchor distinguishes annotations anchored to a point in time from
// annotations anchored to a sample index within the modality's data array.
type AnnotationAnchor int

const (
	AnchorTime AnnotationAnchor = iota
	AnchorIndex
)

// Annotation is a label or derived marker attached to a Modality.
type Annotation struct {
	name   string
	label  string
	anchor AnnotationAnchor
	time   float64
	index  int
}

// NewTimeAnnotation builds an annotation anchored to a point in time,
// expressed in seconds on the modality's time vector.
func NewTimeAnnotation(name, label string, seconds float64) *Annotation {
	return &Annotation{name: name, label: label, anchor: AnchorTime, time: seconds, index: -1}
}

// NewIndexAnnotation builds an annotation anchored to a sample index along
// the modality's time axis.
func NewIndexAnnotation(name, label string, index int) *Annotation {
	return &Annotation{name: name, label: label, anchor: AnchorIndex, index: index}
}

// Name returns the annotation's key within the modality's annotation mapping.
func (a *Annotation) Name() string { return a.name }

// Label returns the annotation text.
func (a *Annotation) Label() string { return a.label }

// Anchor reports how the annotation is positioned.
func (a *Annotation) Anchor() AnnotationAnchor { return a.anchor }

// Time returns the anchor time in seconds; meaningful only for AnchorTime.
func (a *Annotation) Time() float64 { return a.time }

// Index returns the anchor sample index; meaningful only for AnchorIndex.
func (a *Annotation) Index() int { return a.index }
