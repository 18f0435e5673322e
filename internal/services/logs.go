package services

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	deviceLogPort = "8000"
	logPollDelay  = time.Second
)

// LogsParams select the device and the starting byte offset.
type LogsParams struct {
	IP     string
	Follow bool
	Range  int64
}

type logChunk struct {
	status int
	body   []byte
	date   string
}

// ShowLogs prints the device log. With Follow it keeps polling for new bytes
// until ctx is cancelled.
func (s *Services) ShowLogs(ctx context.Context, params LogsParams) error {
	if params.IP == "" {
		return validationError("Device IP address is required.")
	}
	endpoint := "http://" + net.JoinHostPort(params.IP, deviceLogPort) + "/logs"

	offset := params.Range
	if offset < 0 {
		offset = 0
	}
	lastModified := ""
	connected := false

	for {
		chunk, err := s.fetchLogs(ctx, endpoint, offset, lastModified)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			msg := fmt.Sprintf("Could not connect to device [%s].", params.IP)
			if connected {
				msg = fmt.Sprintf("Connection to device [%s] was lost.", params.IP)
			}
			return &Error{Kind: KindRemote, Message: msg, Err: err}
		}
		connected = true

		switch chunk.status {
		case http.StatusOK:
			s.writeLog(chunk.body)
			offset = int64(len(chunk.body))
		case http.StatusPartialContent:
			s.writeLog(chunk.body)
			offset += int64(len(chunk.body))
		case http.StatusNotModified:
		case http.StatusRequestedRangeNotSatisfiable:
			// The log was rotated.
			offset = 0
			chunk.date = ""
			lastModified = ""
		default:
			s.logger.Debug("unexpected log response", "status", chunk.status)
		}
		if chunk.date != "" {
			lastModified = chunk.date
		}

		if !params.Follow {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(logPollDelay):
		}
	}
}

func (s *Services) fetchLogs(ctx context.Context, endpoint string, offset int64, lastModified string) (*logChunk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &logChunk{status: resp.StatusCode, body: body, date: resp.Header.Get("Date")}, nil
}

func (s *Services) writeLog(data []byte) {
	if len(data) == 0 {
		return
	}
	_, _ = s.printer.Out().Write(data)
}
