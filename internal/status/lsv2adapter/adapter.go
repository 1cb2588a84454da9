// Package lsv2adapter implements the status.Reader for HEIDENHAIN controls
// speaking the line-oriented LSV2 protocol. It requests program_status,
// execution_state and program_stack, extracts the execution state and the
// program stack from the reply with regular expressions, and derives part
// completion from an edge-triggered PLC marker, per §6.
package lsv2adapter

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesforge/shopfloor/internal/status"
)

// Marker identifies which PLC address carries the edge-triggered
// part-completion signal for a machine; machines 1, 2 and 5 in the
// reference fleet use the boolean M-marker, every other machine uses the
// DWORD counter completion code.
type Marker int

const (
	MarkerBoolean Marker = iota // M4170
	MarkerDWord                 // DWORD 2592 == 255
)

var (
	executionStateRe = regexp.MustCompile(`EXECUTION_STATE\s*[:=]\s*(\w+)`)
	programStackRe   = regexp.MustCompile(`PROGRAM_STACK\s*[:=]\s*"?([^"\r\n]+)"?`)
	boolMarkerRe     = regexp.MustCompile(`M4170\s*[:=]\s*(0|1)`)
	dwordMarkerRe    = regexp.MustCompile(`DWORD\s*2592\s*[:=]\s*(\d+)`)
)

const runningExecutionState = "EXECUTION_STATE_RUN"

// Config describes one LSV2 control connection.
type Config struct {
	MachineID uuid.UUID
	Address   string // host:port
	Marker    Marker
	Timeout   time.Duration // default 1s
}

// Reader polls a single LSV2-speaking control over a line-oriented TCP
// connection, reconnecting lazily on the next Read after a failure.
type Reader struct {
	cfg         Config
	conn        net.Conn
	lastMarker  bool
	seenMarker  bool
	partCount   int
}

// New builds a Reader for cfg.
func New(cfg Config) *Reader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	return &Reader{cfg: cfg}
}

func (r *Reader) MachineID() uuid.UUID { return r.cfg.MachineID }

func (r *Reader) connect() error {
	if r.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", r.cfg.Address, r.cfg.Timeout)
	if err != nil {
		return err
	}
	r.conn = conn
	return nil
}

// Read implements status.Reader. Connect or read failures are reported as a
// disconnected sample, matching the §4.5 OFF-on-failure rule.
func (r *Reader) Read(ctx context.Context) (status.Sample, error) {
	now := time.Now().UTC()
	offSample := status.Sample{MachineID: r.cfg.MachineID, Timestamp: now, Connected: false}

	if err := r.connect(); err != nil {
		return offSample, nil
	}

	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > r.cfg.Timeout {
		deadline = time.Now().Add(r.cfg.Timeout)
	}
	_ = r.conn.SetDeadline(deadline)

	raw, err := r.query()
	if err != nil {
		r.disconnect()
		return offSample, nil
	}

	executionState := firstMatch(executionStateRe, raw)
	programStack := firstMatch(programStackRe, raw)

	r.observeMarker(r.readMarker(raw))

	return status.Sample{
		MachineID:     r.cfg.MachineID,
		Timestamp:     now,
		Connected:     true,
		Running:       executionState == runningExecutionState,
		ActiveProgram: programStack,
		PartCount:     r.partCount,
	}, nil
}

// query sends the status request line and reads the control's reply,
// matching the program_status / execution_state / program_stack operations
// pyLSV2 exposes over the same wire protocol.
func (r *Reader) query() (string, error) {
	if _, err := fmt.Fprintf(r.conn, "program_status;execution_state;program_stack\n"); err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(r.conn)
	var sb strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		sb.WriteString(line)
		sb.WriteByte('\n')
		if line == "" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// observeMarker advances the edge detector with the marker's current level
// and increments partCount once per OFF-to-ON transition.
func (r *Reader) observeMarker(level bool) {
	if level && !r.lastMarker && r.seenMarker {
		r.partCount++
	}
	r.lastMarker = level
	r.seenMarker = true
}

func (r *Reader) readMarker(raw string) bool {
	switch r.cfg.Marker {
	case MarkerBoolean:
		return firstMatch(boolMarkerRe, raw) == "1"
	default:
		return firstMatch(dwordMarkerRe, raw) == "255"
	}
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func (r *Reader) disconnect() {
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

// Close implements status.Reader.
func (r *Reader) Close() error {
	r.disconnect()
	return nil
}
