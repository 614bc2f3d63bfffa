package backend

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Spawned commands, invoked with a single hex-encoded blob name argument.
const (
	cmdPut    = "hat-backup-put"
	cmdGet    = "hat-backup-get"
	cmdDelete = "hat-backup-delete"
	cmdList   = "hat-backup-list"
)

// retryBackoff paces retries of a failed put so a persistently broken
// helper doesn't spin a CPU core.
const retryBackoff = 50 * time.Millisecond

// Spawned invokes external helper processes for every operation,
// streaming ciphertext into the child's stdin on put and reading bytes
// from the child's stdout on get/list. A nonzero exit or signal on put
// is logged and the write is retried from the same in-memory ciphertext
// indefinitely; the only way to observe permanent failure is an
// application-level timeout or interruption, which callers implement by
// not calling Flush and exiting instead.
type Spawned struct {
	queue *writeQueue
	log   *logrus.Entry
}

// NewSpawned builds a backend that shells out to the hat-backup-* helper
// commands on PATH, bounding concurrent puts at concurrency (0 selects
// DefaultConcurrency).
func NewSpawned(concurrency int) *Spawned {
	return &Spawned{
		queue: newWriteQueue(concurrency),
		log:   logrus.WithField("backend", "spawned"),
	}
}

func (s *Spawned) Store(name []byte, ciphertext []byte, done DoneFunc) error {
	hexKey := hex.EncodeToString(name)
	data := append([]byte(nil), ciphertext...)

	s.queue.submit(func() error {
		for {
			if err := s.put(hexKey, data); err != nil {
				s.log.WithError(err).WithField("blob", hexKey).
					Warn("put failed, restarting from original ciphertext")
				time.Sleep(retryBackoff)
				continue
			}
			break
		}
		if done != nil {
			done()
		}
		return nil
	})

	return nil
}

func (s *Spawned) put(hexKey string, data []byte) error {
	cmd := exec.Command(cmdPut, hexKey)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("spawned backend: failed to open stdin for %s: %w", cmdPut, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawned backend: failed to spawn %s: %w", cmdPut, err)
	}

	if _, err := stdin.Write(data); err != nil {
		stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("spawned backend: failed to stream ciphertext to %s: %w", cmdPut, err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("spawned backend: %s exited with error: %w", cmdPut, err)
	}
	return nil
}

func (s *Spawned) Retrieve(name []byte) ([]byte, bool, error) {
	hexKey := hex.EncodeToString(name)

	out, err := exec.Command(cmdGet, hexKey).Output()
	if err != nil {
		return nil, false, fmt.Errorf("spawned backend: %s failed for %s: %w", cmdGet, hexKey, err)
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out, true, nil
}

func (s *Spawned) Delete(name []byte) error {
	hexKey := hex.EncodeToString(name)
	if err := exec.Command(cmdDelete, hexKey).Run(); err != nil {
		return fmt.Errorf("spawned backend: %s failed for %s: %w", cmdDelete, hexKey, err)
	}
	return nil
}

func (s *Spawned) List() ([][]byte, error) {
	out, err := exec.Command(cmdList).Output()
	if err != nil {
		return nil, fmt.Errorf("spawned backend: %s failed: %w", cmdList, err)
	}

	var names [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, err := hex.DecodeString(line)
		if err != nil {
			s.log.WithField("line", line).Warn("ignoring unexpected line in list output")
			continue
		}
		names = append(names, name)
	}
	return names, scanner.Err()
}

func (s *Spawned) Flush() error {
	return s.queue.flush()
}

var _ Backend = (*Spawned)(nil)
