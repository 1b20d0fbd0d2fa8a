package hierarchy

import (
	"errors"
	"testing"
)

func evenTimeVector(n int) []float64 {
	vector := make([]float64, n)
	for i := range vector {
		vector[i] = float64(i) * 0.01
	}
	return vector
}

func TestAddModalityShapeMatch(t *testing.T) {
	source := NewSource("probe", "P1", "/data/day1")
	data := NewModalityData(make([]float64, 4*42), []int{4, 42}, evenTimeVector(4), 0.125)

	modality := NewRecordedUltrasound("ultrasound", data, 81.5)
	if err := source.AddModality(modality); err != nil {
		t.Fatalf("AddModality: %v", err)
	}

	retrieved, ok := source.Modality("ultrasound")
	if !ok {
		t.Fatal("modality not retrievable by name")
	}
	if retrieved.Kind() != KindRecordedUltrasound {
		t.Errorf("Kind: got %s", retrieved.Kind())
	}
	if retrieved.Data().TimeLength() != 4 {
		t.Errorf("TimeLength: got %d, want 4", retrieved.Data().TimeLength())
	}
}

func TestAddModalityRejectsTimeVectorMismatch(t *testing.T) {
	source := NewSource("probe", "P1", "/data/day1")
	data := NewModalityData(make([]float64, 4*42), []int{4, 42}, evenTimeVector(3), 0)

	err := source.AddModality(NewRecordedUltrasound("ultrasound", data, 81.5))
	var mismatch *ShapeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if _, ok := source.Modality("ultrasound"); ok {
		t.Error("rejected modality must not be retrievable")
	}
}

func TestAddModalityRejectsElementCountMismatch(t *testing.T) {
	source := NewSource("probe", "P1", "/data/day1")
	data := NewModalityData(make([]float64, 10), []int{4, 42}, evenTimeVector(4), 0)

	err := source.AddModality(NewRecordedAudio("audio", data, 44100))
	var mismatch *ShapeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
}

func TestAddModalityRejectsDuplicateName(t *testing.T) {
	source := NewSource("probe", "P1", "/data/day1")
	data := NewModalityData(evenTimeVector(8), []int{8}, evenTimeVector(8), 0)

	if err := source.AddModality(NewRecordedAudio("audio", data, 44100)); err != nil {
		t.Fatalf("first AddModality: %v", err)
	}
	err := source.AddModality(NewRecordedAudio("audio", data, 22050))
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}

	// Explicit replacement is allowed and still shape-checked.
	if err := source.ReplaceModality(NewRecordedAudio("audio", data, 22050)); err != nil {
		t.Fatalf("ReplaceModality: %v", err)
	}
	bad := NewModalityData(evenTimeVector(8), []int{8}, evenTimeVector(7), 0)
	if err := source.ReplaceModality(NewRecordedAudio("audio", bad, 22050)); err == nil {
		t.Fatal("ReplaceModality must still enforce shape invariants")
	}
}

func TestModalityAnnotations(t *testing.T) {
	data := NewModalityData(evenTimeVector(8), []int{8}, evenTimeVector(8), 0)
	modality := NewSpline("spline_pd", data, "pd", "fp1:abc")

	if err := modality.AddAnnotation(NewTimeAnnotation("gesture_onset", "onset", 0.42)); err != nil {
		t.Fatalf("AddAnnotation: %v", err)
	}
	if err := modality.AddAnnotation(NewIndexAnnotation("peak", "max", 5)); err != nil {
		t.Fatalf("AddAnnotation: %v", err)
	}

	err := modality.AddAnnotation(NewTimeAnnotation("peak", "again", 0.9))
	var dup *DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}

	annotation, ok := modality.Annotation("gesture_onset")
	if !ok || annotation.Time() != 0.42 {
		t.Errorf("annotation lookup: got %v/%v", annotation, ok)
	}
	names := modality.AnnotationNames()
	if len(names) != 2 || names[0] != "gesture_onset" || names[1] != "peak" {
		t.Errorf("AnnotationNames: got %v", names)
	}
}

func TestModalityDataCopiesOnRead(t *testing.T) {
	values := []float64{1, 2, 3}
	data := NewModalityData(values, []int{3}, []float64{0, 1, 2}, 0)

	read := data.Values()
	read[0] = 99
	if data.Values()[0] != 1 {
		t.Error("Values must return a copy, not the backing array")
	}

	shape := data.Shape()
	shape[0] = 99
	if data.Shape()[0] != 3 {
		t.Error("Shape must return a copy, not the backing slice")
	}
}
