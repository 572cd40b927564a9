package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/packrun/internal/model"
)

func TestErrorKind(t *testing.T) {
	tests := map[string]struct {
		err     error
		expKind model.ErrorKind
	}{
		"No error should not have kind.": {
			err:     nil,
			expKind: "",
		},

		"A wrapped provisioning error should be detected.": {
			err:     fmt.Errorf("setup: %w", &model.ProvisioningError{Pack: "p", Err: errors.New("boom")}),
			expKind: model.ErrorKindProvisioning,
		},

		"An entry point error should be detected.": {
			err:     &model.EntryPointNotFoundError{Path: "/x.py"},
			expKind: model.ErrorKindEntryPoint,
		},

		"An execution error should be detected.": {
			err:     &model.ExecutionError{Result: &model.ExecutionResult{ExitCode: 2}},
			expKind: model.ErrorKindExecution,
		},

		"A result parse error should be detected.": {
			err:     &model.ResultParseError{Line: "{", Result: &model.ExecutionResult{}, Err: errors.New("eof")},
			expKind: model.ErrorKindResultParse,
		},

		"A timeout error should be detected.": {
			err:     &model.ExecutionTimeoutError{Timeout: time.Second, Result: &model.ExecutionResult{}},
			expKind: model.ErrorKindTimeout,
		},

		"Unknown errors should be internal.": {
			err:     errors.New("something"),
			expKind: model.ErrorKindInternal,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expKind, model.KindOf(test.err))
		})
	}
}

func TestExecutionErrorMessage(t *testing.T) {
	err := &model.ExecutionError{Result: &model.ExecutionResult{
		ExitCode: 1,
		Stderr:   "Traceback (most recent call last):\n  ...\nImportError: No module named six\n\n",
	}}

	assert.Equal(t, "action exited with code 1: ImportError: No module named six", err.Error())
}

func TestOutputOf(t *testing.T) {
	res := &model.ExecutionResult{ExitCode: 3, Stdout: "out", Stderr: "err"}

	assert.Equal(t, res, model.OutputOf(&model.ExecutionError{Result: res}))
	assert.Equal(t, res, model.OutputOf(fmt.Errorf("wrap: %w", &model.ResultParseError{Result: res, Err: errors.New("x")})))
	assert.Equal(t, res, model.OutputOf(&model.ExecutionTimeoutError{Result: res}))
	assert.Nil(t, model.OutputOf(errors.New("other")))
}
