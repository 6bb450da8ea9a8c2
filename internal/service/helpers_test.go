package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/intern-portal-api/internal/dto"
	"github.com/noah-isme/intern-portal-api/internal/models"
	"github.com/noah-isme/intern-portal-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func buildFileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"" + field + "\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File[field]
	require.Len(t, files, 1)
	return files[0]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type submissionRepoStub struct {
	mu        sync.Mutex
	nextID    uint
	rows      map[uint]models.Submission
	createErr error
	decideErr error
	// forceDecideMiss simulates losing the pending-only guard to a
	// concurrent evaluator.
	forceDecideMiss bool
}

func newSubmissionRepoStub() *submissionRepoStub {
	return &submissionRepoStub{rows: make(map[uint]models.Submission)}
}

func (s *submissionRepoStub) ListAll(ctx context.Context) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Submission, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *submissionRepoStub) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *submissionRepoStub) GetByUserID(ctx context.Context, userID uint) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.UserID == userID {
			return row, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (s *submissionRepoStub) Create(ctx context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	submission.ID = s.nextID
	s.rows[submission.ID] = *submission
	return nil
}

func (s *submissionRepoStub) DecideIfPending(ctx context.Context, id uint, decision repository.Decision) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decideErr != nil {
		return false, s.decideErr
	}
	row, ok := s.rows[id]
	if !ok || row.Status != models.SubmissionStatusPending || s.forceDecideMiss {
		return false, nil
	}
	row.Status = decision.Status
	row.Feedback = decision.Feedback
	decidedBy := decision.DecidedBy
	decidedAt := decision.DecidedAt
	row.DecidedBy = &decidedBy
	row.DecidedAt = &decidedAt
	s.rows[id] = row
	return true, nil
}

type uploadCall struct {
	publicID string
	size     int
}

type uploaderStub struct {
	mu        sync.Mutex
	calls     []uploadCall
	failAfter int
	err       error
}

func (u *uploaderStub) UploadAs(ctx context.Context, publicID string, reader io.Reader) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil && len(u.calls) >= u.failAfter {
		return "", u.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.calls = append(u.calls, uploadCall{publicID: publicID, size: len(data)})
	return "https://cdn.test/" + publicID, nil
}

type notifierCall struct {
	to       string
	name     string
	verdict  string
	feedback string
}

type notifierStub struct {
	mu    sync.Mutex
	calls []notifierCall
	err   error
}

func (n *notifierStub) SendDecision(ctx context.Context, to, name, verdict, feedback string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifierCall{to: to, name: name, verdict: verdict, feedback: feedback})
	return n.err
}

type eventsStub struct {
	mu     sync.Mutex
	events []dto.ChangeEvent
}

func (e *eventsStub) PublishChange(ctx context.Context, action string, submissionID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, dto.ChangeEvent{Table: "submissions", Action: action, SubmissionID: submissionID})
}

func (e *eventsStub) Subscribe() (<-chan dto.ChangeEvent, func()) {
	channel := make(chan dto.ChangeEvent)
	return channel, func() { close(channel) }
}

func (e *eventsStub) Start(ctx context.Context) {}

var errStubFailure = errors.New("stub failure")
