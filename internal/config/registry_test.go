package config

import (
	"errors"
	"testing"

	"github.com/wiredbrain/axiom/pkg/provider/stt"
	sttmock "github.com/wiredbrain/axiom/pkg/provider/stt/mock"
	"github.com/wiredbrain/axiom/pkg/provider/vad"
	vadmock "github.com/wiredbrain/axiom/pkg/provider/vad/mock"
)

func TestRegistry_CreateRegistered(t *testing.T) {
	r := NewRegistry()

	var gotEntry ProviderEntry
	r.RegisterSTT("deepgram", func(e ProviderEntry) (stt.Transcriber, error) {
		gotEntry = e
		return &sttmock.Transcriber{}, nil
	})

	entry := ProviderEntry{Name: "deepgram", APIKey: "dg-key", Model: "nova-2"}
	p, err := r.CreateSTT(entry)
	if err != nil {
		t.Fatalf("CreateSTT: %v", err)
	}
	if p == nil {
		t.Fatal("CreateSTT returned nil provider")
	}
	if gotEntry.APIKey != "dg-key" || gotEntry.Model != "nova-2" {
		t.Errorf("factory received entry %+v", gotEntry)
	}
}

func TestRegistry_CreateUnregistered(t *testing.T) {
	r := NewRegistry()

	_, err := r.CreateLLM(ProviderEntry{Name: "ollama"})
	if !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("error = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_OverwriteRegistration(t *testing.T) {
	r := NewRegistry()

	first := &vadmock.Detector{}
	second := &vadmock.Detector{}
	r.RegisterVAD("energy", func(ProviderEntry) (vad.Detector, error) { return first, nil })
	r.RegisterVAD("energy", func(ProviderEntry) (vad.Detector, error) { return second, nil })

	got, err := r.CreateVAD(ProviderEntry{Name: "energy"})
	if err != nil {
		t.Fatalf("CreateVAD: %v", err)
	}
	if got != second {
		t.Error("expected the later registration to win")
	}
}
