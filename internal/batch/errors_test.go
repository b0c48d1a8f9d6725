package batch

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	err := WrapError(KindIO, io.ErrUnexpectedEOF, "short read on %s", "input.mp4")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("wrapped cause must survive errors.Is")
	}
	if KindOf(err) != KindIO {
		t.Errorf("kind = %v", KindOf(err))
	}
}

func TestKindOfThroughWrappedChain(t *testing.T) {
	inner := NewError(KindRestricted, "private video")
	wrapped := fmt.Errorf("download item 3: %w", inner)
	if KindOf(wrapped) != KindRestricted {
		t.Errorf("kind through chain = %v, want restricted", KindOf(wrapped))
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("unclassified errors must report internal")
	}
}
