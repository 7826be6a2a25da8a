package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/imc-lab/goimc/pkg/errors"
)

func TestSetupAndLog(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "info")
	defer Setup(nil, "disabled")

	l := Logger()
	l.Info().Str("loss", "l2").Int("iteration", 3).Msg("step")

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["loss"] != "l2" {
		t.Errorf("loss field = %v, want l2", record["loss"])
	}
	if record["message"] != "step" {
		t.Errorf("message field = %v, want step", record["message"])
	}
}

func TestWarningsRouteToZerolog(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "warn")
	defer Setup(nil, "disabled")

	errors.Warn(errors.NewConvergenceWarning("QNSolver", 50, "stalled"))

	out := buf.String()
	if !strings.Contains(out, "ConvergenceWarning") {
		t.Errorf("warning not structured: %s", out)
	}
	if !strings.Contains(out, `"iterations":50`) {
		t.Errorf("iterations field missing: %s", out)
	}
}

func TestDisabledLevelProducesNoOutput(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "off")
	defer Setup(nil, "disabled")

	l := Logger()
	l.Info().Msg("should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}
