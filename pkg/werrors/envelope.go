package werrors

import (
	"encoding/json"
	"os"
)

// Envelope is the header every waitctl subcommand's --json output shares:
// a stable schema version, the command name, and whether it succeeded.
// Commands embed Envelope alongside their own result payload.
type Envelope struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// Location is a position within a selector map or workflow definition
// file, attached to an Issue when the failure can be pinned to a line.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Issue is one structured problem reported in a --json error envelope.
// Code is a werrors.Code when the failure came from the wait or step
// machinery; commands that fail before ever constructing a WaitError or
// StepError (a bad flag, an unreadable file, a YAML syntax error) use an
// ad hoc code string instead, which is still a valid Code value.
type Issue struct {
	Code       Code      `json:"code"`
	Message    string    `json:"message"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	StepID     string    `json:"step_id,omitempty"`
}

// IssueFromError builds an Issue out of any error, pulling the reason
// code and suggestion from a wrapped WaitError or StepError when present,
// and the step it failed in when err wraps a StepError.
func IssueFromError(err error) Issue {
	iss := Issue{Code: CodeUnknown}
	if err == nil {
		return iss
	}
	iss.Message = err.Error()
	iss.Code = CodeOf(err)
	iss.Suggestion = Guidance(iss.Code)
	var se *StepError
	if As(err, &se) {
		iss.StepID = se.StepID
	}
	return iss
}

// Emit marshals response as indented JSON to stdout.
func Emit(response any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// EmitIssues emits a failed Envelope carrying issues.
func EmitIssues(command string, issues []Issue) error {
	type errorEnvelope struct {
		Envelope
		Errors []Issue `json:"errors"`
	}
	return Emit(errorEnvelope{
		Envelope: Envelope{Version: "1.0", Command: command, Success: false},
		Errors:   issues,
	})
}

// EmitIssue is a convenience for the common single-issue failure: a bad
// flag, an unreadable file, a parse error caught before any WaitError or
// StepError could be constructed.
func EmitIssue(command, code, message string) error {
	return EmitIssues(command, []Issue{{Code: Code(code), Message: message}})
}
