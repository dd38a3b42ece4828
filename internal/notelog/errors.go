package notelog

import "fmt"

// RemoteReadError reports a failure to read the remote log: link issuance,
// transport, a missing file or a rejected session.
type RemoteReadError struct {
	Path string
	Err  error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *RemoteReadError) Unwrap() error { return e.Err }

// RemoteWriteError reports a failed upload of the log.
type RemoteWriteError struct {
	Path string
	Err  error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }
