package safe_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/utils/safe"
)

type closeCounter struct {
	io.Reader
	closed int
	err    error
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.err
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	safe.Close(ctx, nil)

	c := &closeCounter{err: errors.New("already closed")}
	safe.Close(ctx, c)
	gt.Number(t, c.closed).Equal(1)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	safe.Write(context.Background(), &buf, []byte("scorecard"))
	gt.Value(t, buf.String()).Equal("scorecard")
	safe.Write(context.Background(), nil, []byte("ignored"))
}

func TestDrainBody(t *testing.T) {
	body := &closeCounter{Reader: strings.NewReader("leftover")}
	safe.DrainBody(context.Background(), &http.Response{Body: body})
	gt.Number(t, body.closed).Equal(1)

	safe.DrainBody(context.Background(), nil)
}
