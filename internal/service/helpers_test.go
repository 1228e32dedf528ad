package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sheetchart-api/internal/dto"
	"github.com/noah-isme/sheetchart-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedServiceUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{Name: strings.Split(email, "@")[0], Email: email, Role: role, Status: models.UserStatusActive}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// fakeConn stands in for a websocket connection: frames written by the
// server land on outbound, frames pushed to inbound are read by the server.
type fakeConn struct {
	inbound  chan []byte
	outbound chan []byte
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound:  make(chan []byte, 8),
		outbound: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadJSON(v interface{}) error {
	select {
	case raw := <-c.inbound:
		return json.Unmarshal(raw, v)
	case <-c.closed:
		return io.EOF
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if messageType != websocket.TextMessage {
		return nil
	}
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	case c.outbound <- append([]byte(nil), data...):
		return nil
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) send(t *testing.T, event string, payload interface{}) {
	t.Helper()
	frame, err := dto.NewRealtimeFrame(event, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	c.inbound <- raw
}

// nextFrame waits for the next frame with the given event, skipping others.
func (c *fakeConn) nextFrame(t *testing.T, event string, timeout time.Duration) (dto.RealtimeFrame, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case raw := <-c.outbound:
			var frame dto.RealtimeFrame
			require.NoError(t, json.Unmarshal(raw, &frame))
			if frame.Event == event {
				return frame, true
			}
		case <-deadline:
			return dto.RealtimeFrame{}, false
		}
	}
}

func (c *fakeConn) awaitSnapshot(t *testing.T, want dto.StatsSnapshot) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var last dto.StatsSnapshot
	for time.Now().Before(deadline) {
		frame, ok := c.nextFrame(t, dto.EventStatsUpdate, time.Until(deadline))
		if !ok {
			break
		}
		var payload dto.StatsUpdatePayload
		require.NoError(t, json.Unmarshal(frame.Payload, &payload))
		last = payload.Data
		if last == want {
			return
		}
	}
	t.Fatalf("expected stats-update %+v, last received %+v", want, last)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	workbook := excelize.NewFile()
	defer func() { _ = workbook.Close() }()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, workbook.SetSheetRow("Sheet1", cell, &values))
	}

	buf, err := workbook.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf("form-data; name=\"file\"; filename=%q", filename)},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
