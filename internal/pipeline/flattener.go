package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// noMeshMessage is what flatone prints to stderr when the segment has no
// mesh to download.
const noMeshMessage = "No meshes found."

// Flattener runs the external flattening operation for one segment, emitting
// mesh and skeleton artifacts into the segment's directory under root.
type Flattener interface {
	Flatten(ctx context.Context, id types.SegmentID, root string, overwrite bool) error
}

// FlatoneFlattener invokes the flatone command-line tool as a subprocess:
//
//	flatone <segment_id> --output-dir <root> [--overwrite]
//
// One attempt per planned run; flattening is idempotent but expensive, so a
// silent retry would mask persistent failures.
type FlatoneFlattener struct {
	// Binary is the flatone executable name or path.
	Binary string
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
	// Timeout bounds one invocation; zero means no bound beyond ctx.
	Timeout time.Duration

	Logger *slog.Logger
}

// Flatten runs flatone for the segment. A "No meshes found." report maps to
// FLATTEN_NO_MESH; any other failure maps to FLATTEN_FAILED with the stderr
// tail attached.
func (f *FlatoneFlattener) Flatten(ctx context.Context, id types.SegmentID, root string, overwrite bool) error {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	args := []string{id.String(), "--output-dir", root}
	if overwrite {
		args = append(args, "--overwrite")
	}
	args = append(args, f.ExtraArgs...)

	cmd := exec.CommandContext(ctx, f.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("flatone finished",
		"segment", id, "duration", time.Since(start), "error", runErr != nil)

	// flatone reports the no-mesh case on stderr regardless of exit code.
	if strings.Contains(stderr.String(), noMeshMessage) {
		return types.NewError(types.FLATTEN_NO_MESH,
			fmt.Sprintf("no meshes found for segment %s", id))
	}

	if ctx.Err() == context.DeadlineExceeded {
		return types.WrapError(types.FLATTEN_FAILED,
			fmt.Sprintf("flatone timed out for segment %s", id), ctx.Err())
	}
	if runErr != nil {
		return types.WrapError(types.FLATTEN_FAILED,
			fmt.Sprintf("flatone failed for segment %s: %s", id, stderrTail(&stderr)), runErr)
	}
	return nil
}

// stderrTail returns the last few lines of stderr for error messages.
func stderrTail(buf *bytes.Buffer) string {
	const maxLines = 5
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, " | ")
}
