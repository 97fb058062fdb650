package model

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
)

func TestStateManager_Lifecycle(t *testing.T) {
	sm := NewStateManager()

	if sm.IsFitted() {
		t.Error("new state manager should not be fitted")
	}
	if err := sm.RequireFitted(); err == nil {
		t.Error("RequireFitted() should fail before SetFitted()")
	}

	sm.SetDimensions(4, 100)
	sm.SetFitted()

	if !sm.IsFitted() {
		t.Error("IsFitted() = false after SetFitted()")
	}
	if err := sm.RequireFitted(); err != nil {
		t.Errorf("RequireFitted() error = %v", err)
	}

	nFeatures, nSamples := sm.GetDimensions()
	if nFeatures != 4 || nSamples != 100 {
		t.Errorf("GetDimensions() = (%d, %d), want (4, 100)", nFeatures, nSamples)
	}

	sm.Reset()
	if sm.IsFitted() {
		t.Error("IsFitted() = true after Reset()")
	}
}

func TestStateManager_ConcurrentAccess(t *testing.T) {
	sm := NewStateManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sm.SetFitted()
		}()
		go func() {
			defer wg.Done()
			_ = sm.IsFitted()
		}()
	}
	wg.Wait()

	if !sm.IsFitted() {
		t.Error("IsFitted() = false after concurrent SetFitted()")
	}
}

type dummyModel struct {
	Weights []float64
	Bias    float64
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")
	saved := &dummyModel{Weights: []float64{1.5, -2.5}, Bias: 0.25}

	if err := SaveModel(saved, path); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}

	var loaded dummyModel
	if err := LoadModel(&loaded, path); err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	if loaded.Bias != saved.Bias {
		t.Errorf("Bias = %f, want %f", loaded.Bias, saved.Bias)
	}
	for i, w := range saved.Weights {
		if loaded.Weights[i] != w {
			t.Errorf("Weights[%d] = %f, want %f", i, loaded.Weights[i], w)
		}
	}
}

func TestLoadModel_Missing(t *testing.T) {
	var m dummyModel
	if err := LoadModel(&m, "/nonexistent/model.gob"); err == nil {
		t.Error("LoadModel() should fail for a missing file")
	}
}

func TestSaveLoadModel_Writer(t *testing.T) {
	var buf bytes.Buffer
	saved := &dummyModel{Weights: []float64{3}, Bias: -1}

	if err := SaveModelToWriter(saved, &buf); err != nil {
		t.Fatalf("SaveModelToWriter() error = %v", err)
	}

	var loaded dummyModel
	if err := LoadModelFromReader(&loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader() error = %v", err)
	}
	if loaded.Bias != -1 || loaded.Weights[0] != 3 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
