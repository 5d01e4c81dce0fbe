package metrics

import (
	"errors"
	"testing"
)

func TestNewPublishObserver(t *testing.T) {
	observer := NewPublishObserver()
	if observer == nil {
		t.Fatal("NewPublishObserver() returned nil")
	}
}

func TestPublishObserverUpload(t *testing.T) {
	observer := NewPublishObserver()

	t.Run("successful upload", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("ObserveUpload() panicked on success: %v", r)
			}
		}()

		observer.ObserveUpload(2.5, 1024*1024, nil)
	})

	t.Run("failed upload", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("ObserveUpload() panicked on error: %v", r)
			}
		}()

		observer.ObserveUpload(0.8, 0, errors.New("connection reset"))
	})

	t.Run("zero duration", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("ObserveUpload() panicked on zero duration: %v", r)
			}
		}()

		observer.ObserveUpload(0, 512, nil)
	})
}

func TestPublishObserverRetry(t *testing.T) {
	observer := NewPublishObserver()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("ObserveRetry() panicked: %v", r)
		}
	}()

	observer.ObserveRetry()
	observer.ObserveRetry()
}

func TestPublishObserverConcurrent(t *testing.T) {
	observer := NewPublishObserver()
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Goroutine %d panicked: %v", id, r)
				}
				done <- true
			}()

			observer.ObserveUpload(1.0, 2048, nil)
			observer.ObserveRetry()
			observer.ObserveUpload(0.5, 0, errors.New("timeout"))
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
