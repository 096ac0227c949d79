package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/trainwatch/internal/logging"
	"github.com/tOgg1/trainwatch/internal/tour"
)

// ErrNoFrame is returned when nothing has been rendered yet.
var ErrNoFrame = errors.New("no frame rendered")

// FrameSource supplies the frame to capture.
type FrameSource interface {
	Last() (Frame, bool)
}

// FileService writes plain-text snapshots of the current frame to a directory.
type FileService struct {
	dir    string
	source FrameSource
	logger zerolog.Logger
	newID  func() string
	now    func() time.Time
}

var _ tour.CaptureService = (*FileService)(nil)

// NewFileService creates a service writing into dir.
func NewFileService(dir string, source FrameSource) *FileService {
	return &FileService{
		dir:    dir,
		source: source,
		logger: logging.Component("capture"),
		newID:  func() string { return uuid.NewString() },
		now:    time.Now,
	}
}

// Dir returns the artifact directory.
func (s *FileService) Dir() string {
	return s.dir
}

// Capture writes the last frame with its step header and returns the file
// path as the artifact reference.
func (s *FileService) Capture(ctx context.Context, req tour.CaptureRequest) (tour.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return tour.Artifact{}, err
	}
	frame, ok := s.source.Last()
	if !ok {
		return tour.Artifact{}, ErrNoFrame
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return tour.Artifact{}, fmt.Errorf("create capture dir: %w", err)
	}

	name := fmt.Sprintf("%s-%02d-%s.txt", safeName(req.ScenarioID), req.StepIndex+1, s.newID())
	path := filepath.Join(s.dir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", req.ScenarioID)
	fmt.Fprintf(&b, "# step: %d %s\n", req.StepIndex+1, req.StepTitle)
	fmt.Fprintf(&b, "# size: %dx%d\n", frame.Width, frame.Height)
	fmt.Fprintf(&b, "# captured: %s\n\n", s.now().UTC().Format(time.RFC3339))
	b.WriteString(ansi.Strip(frame.Content))
	if !strings.HasSuffix(frame.Content, "\n") {
		b.WriteByte('\n')
	}

	// Cancellation may have landed while the frame was being assembled.
	if err := ctx.Err(); err != nil {
		return tour.Artifact{}, err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return tour.Artifact{}, fmt.Errorf("write capture: %w", err)
	}

	logging.WithScenario(s.logger, req.ScenarioID).Debug().
		Int("step", req.StepIndex).
		Str("path", path).
		Msg("frame captured")
	return tour.Artifact{Ref: path}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeName(id string) string {
	name := strings.Trim(unsafeChars.ReplaceAllString(id, "_"), "_.")
	if name == "" {
		return "scenario"
	}
	return name
}
