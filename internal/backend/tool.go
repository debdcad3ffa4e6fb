package backend

import (
	"io"
	"os/exec"
)

// Tool is a Variant backed by an external download program.
type Tool struct {
	// ToolName identifies the variant in settings and job listings.
	ToolName string

	// Executable is resolved on the search path.
	Executable string

	// Args builds the argument list for one request.
	Args func(req Request) []string

	// Errors maps the program's exit codes to messages.
	Errors map[int]string

	// Output receives the program's stdout and stderr. Nil discards it.
	Output io.Writer
}

func (t *Tool) Name() string {
	return t.ToolName
}

// Available reports whether Executable resolves on the search path.
func (t *Tool) Available() bool {
	_, err := exec.LookPath(t.Executable)
	return err == nil
}

func (t *Tool) New(req Request, onExit func()) Backend {
	return NewProcess(t.ToolName, t.Executable, t.Args(req), t.Errors, t.Output, onExit)
}

// Exit codes documented in wget(1).
var wgetErrors = map[int]string{
	0: "No problems occurred",
	1: "An error has occurred",
	2: "Parse error",
	3: "I/O error",
	4: "Network failure",
	5: "SSL failure",
	6: "Authentication failure",
	7: "Protocol error",
	8: "Server issued an error response",
}

// Wget downloads with GNU wget into the destination directory.
func Wget(output io.Writer) *Tool {
	return &Tool{
		ToolName:   "wget",
		Executable: "wget",
		Args: func(req Request) []string {
			return []string{"--no-verbose", "--directory-prefix=" + req.Destination, "--", req.URL}
		},
		Errors: wgetErrors,
		Output: output,
	}
}

// The most common exit codes from curl(1).
var curlErrors = map[int]string{
	0:  "No problems occurred",
	1:  "Unsupported protocol",
	2:  "Failed to initialize",
	3:  "Malformed URL",
	5:  "Could not resolve proxy",
	6:  "Could not resolve host",
	7:  "Failed to connect to host",
	18: "Partial file transferred",
	22: "Server issued an error response",
	23: "Write error",
	26: "Read error",
	27: "Out of memory",
	28: "Operation timed out",
	35: "SSL connect error",
	47: "Too many redirects",
	52: "Server returned nothing",
	56: "Failure receiving network data",
	60: "Peer certificate cannot be authenticated",
}

// Curl downloads with curl, naming the file after the remote path.
func Curl(output io.Writer) *Tool {
	return &Tool{
		ToolName:   "curl",
		Executable: "curl",
		Args: func(req Request) []string {
			return []string{
				"--fail", "--location", "--silent", "--show-error",
				"--create-dirs", "--output-dir", req.Destination,
				"--remote-name", "--", req.URL,
			}
		},
		Errors: curlErrors,
		Output: output,
	}
}

// Exit codes documented in aria2c(1).
var aria2Errors = map[int]string{
	0:  "No problems occurred",
	1:  "An unknown error occurred",
	2:  "Time out occurred",
	3:  "Resource was not found",
	6:  "Network problem occurred",
	7:  "Unfinished downloads remained",
	9:  "Not enough disk space available",
	13: "File already exists",
	15: "Could not open or create file",
	16: "Could not create or truncate file",
	17: "File I/O error",
	18: "Could not create directory",
	19: "Name resolution failed",
	22: "Bad HTTP response header",
	23: "Too many redirects",
	24: "HTTP authorization failed",
	28: "Invalid option or argument",
}

// Aria2 downloads with aria2c into the destination directory.
func Aria2(output io.Writer) *Tool {
	return &Tool{
		ToolName:   "aria2c",
		Executable: "aria2c",
		Args: func(req Request) []string {
			return []string{"--dir=" + req.Destination, "--console-log-level=warn", "--", req.URL}
		},
		Errors: aria2Errors,
		Output: output,
	}
}

// DefaultVariants returns the process-backed variants in priority order.
func DefaultVariants(output io.Writer) []Variant {
	return []Variant{Wget(output), Curl(output), Aria2(output)}
}
