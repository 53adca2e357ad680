// Package mpiworker implements the out-of-band worker that services
// MPI 'E' (edit) and 'V' (view) frames handed off by the decoder. It
// satisfies decoder.MPIDispatcher but never touches the decoder's
// state directly — it writes straight to the server connection and,
// for 'V', straight to the client connection, bypassing the decoder
// entirely.
package mpiworker

import (
	"bytes"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Worker dispatches MPI frames to $EDITOR (for 'E') or straight to the
// client (for 'V', the body is written unchanged). For 'E' it writes
// the body to a temp file, runs $EDITOR (falling back to vi) on it,
// then reads the result back.
type Worker struct {
	log *zap.Logger

	// sendToServer writes an MPI response frame back upstream.
	sendToServer func([]byte)
	// sendToClient writes a synthetic frame straight to the client,
	// bypassing the decoder.
	sendToClient func([]byte)

	wg sync.WaitGroup
}

// New creates a Worker. Either send func may be nil if that direction
// is unused (e.g. tests that only exercise 'E').
func New(log *zap.Logger, sendToServer, sendToClient func([]byte)) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{log: log, sendToServer: sendToServer, sendToClient: sendToClient}
}

// Dispatch satisfies decoder.MPIDispatcher. It must not block the
// decoder goroutine for the duration of an interactive edit, so the
// actual work runs on its own goroutine; Wait joins them at shutdown.
func (w *Worker) Dispatch(command byte, body []byte) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		switch command {
		case 'E':
			w.handleEdit(body)
		case 'V':
			w.handleView(body)
		default:
			w.log.Warn("mpiworker: unknown MPI command", zap.ByteString("command", []byte{command}))
		}
	}()
}

// Wait blocks until every in-flight MPI frame has been serviced,
// called by the session driver during teardown.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// handleEdit implements the 'E' command: open $EDITOR on the frame
// body, and on success send the edited text back as a new MPI frame.
func (w *Worker) handleEdit(body []byte) {
	f, err := os.CreateTemp("", "mudgate-mpi-*.txt")
	if err != nil {
		w.log.Error("mpiworker: failed to create temp file", zap.Error(err))
		w.respondCanceled()
		return
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if _, err := f.Write(body); err != nil {
		f.Close()
		w.log.Error("mpiworker: failed to write temp file", zap.Error(err))
		w.respondCanceled()
		return
	}
	f.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.Command(editor, tmpPath)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		w.log.Warn("mpiworker: editor exited with error", zap.Error(err))
		w.respondCanceled()
		return
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		w.log.Error("mpiworker: failed to read back temp file", zap.Error(err))
		w.respondCanceled()
		return
	}

	w.respondEdit(bytes.TrimRight(edited, "\n"))
}

// handleView implements the 'V' command: the body is already the text
// to display, so it goes straight to the client buffer as a single
// framed write, never passing through the decoder's state machine.
func (w *Worker) handleView(body []byte) {
	if w.sendToClient == nil {
		return
	}
	w.sendToClient(body)
}

func (w *Worker) respondEdit(body []byte) {
	if w.sendToServer == nil {
		return
	}
	var frame bytes.Buffer
	frame.WriteString("~$#EE")
	frame.WriteString(strconv.Itoa(len(body)))
	frame.WriteByte('\n')
	frame.Write(body)
	w.sendToServer(frame.Bytes())
}

// respondCanceled sends a zero-length edit frame, telling the server
// the edit produced no change.
func (w *Worker) respondCanceled() {
	if w.sendToServer == nil {
		return
	}
	w.sendToServer([]byte("~$#EE0\n"))
}
