package errcode

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatalf("Of(nil) = %v", Of(nil))
	}
	if Of(ComFail) != ComFail {
		t.Fatalf("Of(ComFail) = %v", Of(ComFail))
	}
	e := &E{C: DevNotFound, Op: "probe", Err: ComFail}
	if Of(e) != DevNotFound {
		t.Fatalf("Of(E) = %v", Of(e))
	}
	if Of(errors.New("boom")) != Error {
		t.Fatalf("Of(plain error) = %v", Of(errors.New("boom")))
	}
}

func TestNumSigns(t *testing.T) {
	for _, c := range []Code{NullPtr, ComFail, DevNotFound, InvalidLength, SelfTest} {
		if Num(c) >= 0 {
			t.Errorf("Num(%s) = %d, want negative", c, Num(c))
		}
		if IsWarning(c) {
			t.Errorf("IsWarning(%s) = true", c)
		}
	}
	for _, c := range []Code{DefineOpMode, NoNewData, DefineShdHeatrDur} {
		if Num(c) <= 0 {
			t.Errorf("Num(%s) = %d, want positive", c, Num(c))
		}
		if !IsWarning(c) {
			t.Errorf("IsWarning(%s) = false", c)
		}
	}
	if Num(OK) != 0 {
		t.Errorf("Num(OK) = %d", Num(OK))
	}
}

func TestEUnwrap(t *testing.T) {
	cause := ComFail
	e := &E{C: Error, Op: "open_comm", Msg: "usb", Err: cause}
	if !errors.Is(e, ComFail) {
		t.Fatal("E does not unwrap to its cause")
	}
	if !strings.Contains(e.Error(), "usb") {
		t.Fatalf("E.Error() = %q", e.Error())
	}
}

func TestFreport(t *testing.T) {
	var buf bytes.Buffer

	Freport(&buf, "bme69x_init", nil)
	if buf.Len() != 0 {
		t.Fatalf("nil error produced output: %q", buf.String())
	}

	Freport(&buf, "bme69x_get_data", NoNewData)
	line := buf.String()
	if !strings.Contains(line, "bme69x_get_data") ||
		!strings.Contains(line, "Warning [2]") ||
		!strings.Contains(line, "No new data found") {
		t.Fatalf("warning line = %q", line)
	}

	buf.Reset()
	Freport(&buf, "bme69x_init", ComFail)
	line = buf.String()
	if !strings.Contains(line, "Error [-2]") || !strings.Contains(line, "Communication failure") {
		t.Fatalf("error line = %q", line)
	}

	buf.Reset()
	Freport(&buf, "setup", errors.New("something else"))
	if !strings.Contains(buf.String(), "Unknown error code") {
		t.Fatalf("fallback line = %q", buf.String())
	}
}
