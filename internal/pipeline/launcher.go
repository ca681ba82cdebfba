package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
	"github.com/ygrebnov/errorc"

	"go-batch-generator/internal/model"
)

// Launcher starts one worker for a task and blocks until it has exited.
// A non-nil error means the worker may not have reported done.
type Launcher interface {
	Launch(ctx context.Context, task model.Task, sender ProgressSender) error
}

// InProcessLauncher runs each worker as a goroutine
type InProcessLauncher struct {
	Factory ProducerFactory
	// Worker is copied per task; its Producer is replaced by the factory's
	Worker Worker
}

func (l *InProcessLauncher) Launch(ctx context.Context, task model.Task, sender ProgressSender) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errorc.With(ErrWorkerCrashed,
				errorc.String("task", task.String()),
				errorc.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	producer, err := l.Factory(task)
	if err != nil {
		return errorc.With(ErrWorkerCrashed,
			errorc.String("task", task.String()),
			errorc.String("producer", err.Error()),
		)
	}

	w := l.Worker
	w.Producer = producer
	_, err = w.Run(ctx, task, sender)
	return err
}

// WorkerCommand is the hidden sub-command a ProcessLauncher invokes
const WorkerCommand = "worker"

// ProcessLauncher runs each worker in its own OS process.
// The child receives the task as JSON on stdin, streams JSON-line messages on
// stdout and writes logs to stderr.
type ProcessLauncher struct {
	Executable string
	Args       []string
	Env        []string
	Logger     zerolog.Logger
}

// NewProcessLauncher re-executes the running binary with the worker sub-command
func NewProcessLauncher(logger zerolog.Logger, extraArgs ...string) (*ProcessLauncher, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	return &ProcessLauncher{
		Executable: exe,
		Args:       append([]string{WorkerCommand}, extraArgs...),
		Logger:     logger,
	}, nil
}

func (l *ProcessLauncher) Launch(ctx context.Context, task model.Task, sender ProgressSender) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task, err)
	}

	// no CommandContext: a started worker always runs its whole range
	cmd := exec.Command(l.Executable, l.Args...)
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Stdin = bytes.NewReader(payload)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return errorc.With(ErrWorkerCrashed,
			errorc.String("task", task.String()),
			errorc.String("start", err.Error()),
		)
	}

	logger := l.Logger.With().
		Str("phase", string(task.Phase)).
		Int("worker_id", task.ID).
		Int("pid", cmd.Process.Pid).
		Logger()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		relayLogs(stderr, logger)
	}()

	n, decodeErr := DecodeStream(stdout, sender)
	if decodeErr != nil {
		// keep the pipe drained so the child can exit
		_, _ = io.Copy(io.Discard, stdout)
	}
	wg.Wait()
	waitErr := cmd.Wait()

	logger.Debug().Int("messages", n).Msg("worker process exited")

	if decodeErr != nil {
		return decodeErr
	}
	if waitErr != nil {
		return errorc.With(ErrWorkerCrashed,
			errorc.String("task", task.String()),
			errorc.String("exit", waitErr.Error()),
		)
	}
	return nil
}

func relayLogs(r io.Reader, logger zerolog.Logger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		logger.Debug().Str("source", "worker").Msg(line)
	}
}

// ServeWorker is the child side of ProcessLauncher: it reads one task from r,
// runs it and writes the message stream to w
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer, factory ProducerFactory, tmpl Worker) error {
	var task model.Task
	if err := json.NewDecoder(r).Decode(&task); err != nil {
		return fmt.Errorf("decode task: %w", err)
	}

	producer, err := factory(task)
	if err != nil {
		return fmt.Errorf("build producer for %s: %w", task, err)
	}

	worker := tmpl
	worker.Producer = producer
	_, err = worker.Run(ctx, task, NewStreamSender(w))
	return err
}
