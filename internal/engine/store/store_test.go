package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreEmpty(t *testing.T) {
	s := New()
	assert.False(t, s.Ready())
	assert.Nil(t, s.Current())
}

func TestStorePublishReplaces(t *testing.T) {
	s := New()
	first := &Artifact{Version: "20260101_000000"}
	second := &Artifact{Version: "20260101_000001"}

	assert.Nil(t, s.Publish(first))
	assert.True(t, s.Ready())
	assert.Same(t, first, s.Current())

	assert.Same(t, first, s.Publish(second))
	assert.Same(t, second, s.Current())
}

func TestStoreConcurrentReadersSeeWholeArtifacts(t *testing.T) {
	s := New()
	versions := []string{"a", "b", "c", "d"}
	artifacts := make(map[*Artifact]string)
	for _, v := range versions {
		artifacts[&Artifact{Version: v}] = v
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			for a := range artifacts {
				s.Publish(a)
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				a := s.Current()
				if a == nil {
					continue
				}
				if want, ok := artifacts[a]; !ok || a.Version != want {
					t.Errorf("reader observed unknown artifact %+v", a)
					return
				}
			}
		}()
	}
	wg.Wait()
}
