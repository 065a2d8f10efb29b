package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravndata/ingestgate/internal/logger"
	"github.com/ravndata/ingestgate/internal/pipeline"
	"github.com/ravndata/ingestgate/internal/sink/dlq"
	"github.com/ravndata/ingestgate/internal/worker"
)

func newDLQCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "inspect and replay records parked in the dead-letter destination",
	}
	cmd.AddCommand(newDLQInspectCmd())
	cmd.AddCommand(newDLQReplayCmd())
	return cmd
}

func newDLQInspectCmd() *cobra.Command {
	var sampleSize int

	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "print a record count and a sample of what's parked in a file-backed DLQ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := dlq.NewReader(args[0])
			records, err := reader.ReadAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("inspect dlq: %w", err)
			}

			fmt.Printf("%d records parked in %s\n", len(records), args[0])
			for i, r := range records {
				if i >= sampleSize {
					fmt.Printf("... %d more\n", len(records)-sampleSize)
					break
				}
				fmt.Printf("  [%d] %s\n", i, logger.TruncatePreview(r.Bytes(), 160))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&sampleSize, "sample", 10, "number of records to preview")
	return cmd
}

func newDLQReplayCmd() *cobra.Command {
	var endpoint string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "replay <path> --endpoint <url>",
		Short: "re-POST every record parked in a file-backed DLQ to an ingestion endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				return fmt.Errorf("--endpoint is required")
			}

			reader := dlq.NewReader(args[0])
			records, err := reader.ReadAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("replay dlq: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("nothing to replay")
				return nil
			}

			var succeeded, failed atomic.Int64
			client := &http.Client{Timeout: 10 * time.Second}

			jobQueue := make(chan worker.Job, len(records))
			for _, r := range records {
				jobQueue <- replayJob{
					record:    r,
					endpoint:  endpoint,
					client:    client,
					succeeded: &succeeded,
					failed:    &failed,
				}
			}
			close(jobQueue)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			wg := worker.SpawnWorkerPool(ctx, concurrency, jobQueue, log)
			wg.Wait()

			fmt.Printf("replay complete: %d succeeded, %d failed\n", succeeded.Load(), failed.Load())
			if failed.Load() > 0 {
				return fmt.Errorf("%d records failed to replay", failed.Load())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "ingestion endpoint to replay records against, e.g. http://localhost:8080/ingest")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent replay requests")
	return cmd
}

// replayJob re-POSTs a single DLQ record to the ingestion endpoint,
// wrapped the same way the admission handler expects: {"payload": ...}.
type replayJob struct {
	record    pipeline.Record
	endpoint  string
	client    *http.Client
	succeeded *atomic.Int64
	failed    *atomic.Int64
}

type replayResult struct{ err error }

func (r replayResult) Error() error { return r.err }

func (j replayJob) Execute(ctx context.Context) worker.Result {
	envelope, err := json.Marshal(struct {
		Payload json.RawMessage `json:"payload"`
	}{Payload: j.record.Bytes()})
	if err != nil {
		j.failed.Add(1)
		return replayResult{err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(envelope))
	if err != nil {
		j.failed.Add(1)
		return replayResult{err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		j.failed.Add(1)
		return replayResult{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		j.failed.Add(1)
		return replayResult{err: fmt.Errorf("replay: unexpected status %d", resp.StatusCode)}
	}

	j.succeeded.Add(1)
	return replayResult{}
}
