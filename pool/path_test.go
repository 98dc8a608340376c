package pool

import (
	"sync"
	"testing"
)

func TestPathBuilder_PushPop(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.Push("RiskAssessment", -1)
	pb.Push("prediction", 0)
	pb.Push("probability", -1)

	if got := pb.String(); got != "RiskAssessment.prediction[0].probability" {
		t.Errorf("String() = %q", got)
	}
	if pb.Depth() != 3 {
		t.Errorf("Depth() = %d; want 3", pb.Depth())
	}

	pb.Pop()
	if got := pb.String(); got != "RiskAssessment.prediction[0]" {
		t.Errorf("after Pop String() = %q", got)
	}
	pb.Pop()
	pb.Push("prediction", 12)
	if got := pb.String(); got != "RiskAssessment.prediction[12]" {
		t.Errorf("String() = %q", got)
	}

	pb.Pop()
	pb.Pop()
	pb.Pop()
	if pb.Len() != 0 || pb.Depth() != 0 {
		t.Errorf("expected empty builder, got %q", pb.String())
	}
}

func TestPathBuilder_Reset(t *testing.T) {
	pb := AcquirePathBuilder()
	pb.Push("Patient", -1)
	pb.Reset()
	if pb.Len() != 0 || pb.Depth() != 0 {
		t.Error("Reset() should clear buffer and stack")
	}
	pb.Release()

	var nilBuilder *PathBuilder
	nilBuilder.Release()
}

func TestJoin(t *testing.T) {
	tests := []struct {
		segments []string
		want     string
	}{
		{nil, ""},
		{[]string{"Patient"}, "Patient"},
		{[]string{"ServiceRequest", "", "subject"}, "ServiceRequest.subject"},
	}
	for _, tt := range tests {
		if got := Join(tt.segments...); got != tt.want {
			t.Errorf("Join(%v) = %q; want %q", tt.segments, got, tt.want)
		}
	}
	if got := Index("ServiceRequest.note", 2); got != "ServiceRequest.note[2]" {
		t.Errorf("Index() = %q", got)
	}
}

func TestPathBuilder_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb := AcquirePathBuilder()
			defer pb.Release()
			pb.Push("Patient", -1)
			pb.Push("name", 0)
			if pb.String() != "Patient.name[0]" {
				t.Errorf("unexpected path %q", pb.String())
			}
		}()
	}
	wg.Wait()
}

func BenchmarkPathBuilder_Walk(b *testing.B) {
	for i := 0; i < b.N; i++ {
		pb := AcquirePathBuilder()
		pb.Push("RiskAssessment", -1)
		pb.Push("prediction", i%8)
		pb.Push("probability", -1)
		_ = pb.String()
		pb.Pop()
		pb.Pop()
		pb.Release()
	}
}
