package errors

import (
	stderrs "errors"
	"testing"
)

func TestCodes(t *testing.T) {
	err := New(ErrorCodeFatalFile, "boom")
	if !IsCode(err, ErrorCodeFatalFile) {
		t.Fatalf("code = %v", CodeOf(err))
	}
	if IsCode(stderrs.New("plain"), ErrorCodeFatalFile) {
		t.Fatal("foreign error must default to Unknown")
	}
	if CodeOf(nil) != ErrorCodeUnknown {
		t.Fatal("nil must be Unknown")
	}
}

func TestWrapNilInNilOut(t *testing.T) {
	if Wrap(nil, ErrorCodeParse, "x") != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
	if Wrapf(nil, ErrorCodeParse, "x %d", 1) != nil {
		t.Fatal("Wrapf(nil) must be nil")
	}
	if WithFile(nil, "f.log") != nil {
		t.Fatal("WithFile(nil) must be nil")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrs.New("cause")
	err := Wrap(cause, ErrorCodeParse, "decode failed")
	if !stderrs.Is(err, cause) {
		t.Fatal("cause lost through Wrap")
	}
	if Root(err) != cause {
		t.Fatalf("Root = %v", Root(err))
	}
	if err.Error() != "decode failed: cause" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestWithFileCopyOnWrite(t *testing.T) {
	orig := New(ErrorCodeFatalFile, "bad gzip")
	withA := WithFile(orig, "a.log")
	withB := WithFile(withA, "b.log")

	oe, _ := As(orig)
	if oe.File() != "" {
		t.Fatal("original mutated")
	}
	ae, _ := As(withA)
	be, _ := As(withB)
	if ae.File() != "a.log" || be.File() != "b.log" {
		t.Fatalf("files: %q %q", ae.File(), be.File())
	}
	if be.Code() != ErrorCodeFatalFile {
		t.Fatalf("code lost: %v", be.Code())
	}
}

func TestWithFileForeignError(t *testing.T) {
	err := WithFile(stderrs.New("open failed"), "c.log")
	e, ok := As(err)
	if !ok || e.File() != "c.log" || e.Code() != ErrorCodeUnknown {
		t.Fatalf("wrapped foreign error: %+v ok=%v", e, ok)
	}
}

func TestWithOp(t *testing.T) {
	err := WithOp(New(ErrorCodeConfig, "bad flag"), "validate")
	e, _ := As(err)
	if e.Op() != "validate" {
		t.Fatalf("op = %q", e.Op())
	}
	plain := stderrs.New("plain")
	if WithOp(plain, "x") != plain {
		t.Fatal("foreign error should pass through WithOp")
	}
}
