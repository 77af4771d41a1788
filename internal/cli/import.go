package cli

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/busview/internal/db"
	"github.com/tOgg1/busview/internal/logging"
	"github.com/tOgg1/busview/internal/models"
)

// ErrCSVRecord is returned for a malformed capture row.
var ErrCSVRecord = errors.New("invalid capture row")

func newImportCmd(a *app) *cobra.Command {
	var (
		csvPath string
		name    string
		noUse   bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a recorded capture",
		Long: `Import a recorded capture into the capture store.

The CSV file has one frame per row: time (seconds), source (bus index),
address (hex, optional 0x prefix) and payload (hex). A header row is
skipped. The new capture becomes the current selection unless --no-use
is given.`,
		Example: "  busview import --csv drive.csv --name drive-1",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(csvPath) == "" {
				return errors.New("--csv is required")
			}
			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("failed to open capture file: %w", err)
			}
			defer f.Close()

			events, err := parseCaptureCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", csvPath, err)
			}

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
			}

			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			ctx := cmd.Context()
			repo := db.NewCaptureRepository(database)
			capture := &models.Capture{Name: name, SourcePath: csvPath}
			if err := repo.Create(ctx, capture); err != nil {
				return err
			}
			if err := repo.AppendEvents(ctx, capture.ID, events); err != nil {
				_ = repo.Delete(ctx, capture.ID)
				return err
			}
			capture.EventCount = len(events)

			logging.Info().
				Str("capture", capture.ID).
				Str("name", capture.Name).
				Int("events", len(events)).
				Msg("capture imported")

			if !noUse {
				store := a.contextStore()
				stored, err := store.Load()
				if err != nil {
					return err
				}
				stored.SetCapture(capture.ID, capture.Name)
				if err := store.Save(stored); err != nil {
					return err
				}
			}

			if a.jsonOutput {
				return WriteOutput(cmd.OutOrStdout(), capture)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d events into %s (%s)\n", len(events), capture.Name, shortID(capture.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file with time,source,address,data rows")
	cmd.Flags().StringVar(&name, "name", "", "capture name (default: file name)")
	cmd.Flags().BoolVar(&noUse, "no-use", false, "do not select the imported capture")
	return cmd
}

// parseCaptureCSV reads time,source,address,data rows. Times are seconds
// from any origin; they are stored as nanoseconds.
func parseCaptureCSV(r io.Reader) ([]*models.CanEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var events []*models.CanEvent
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCSVRecord, err)
		}
		if line == 1 && isHeader(record) {
			continue
		}
		e, err := parseCaptureRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCSVRecord, line, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func isHeader(record []string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	return err != nil
}

func parseCaptureRecord(record []string) (*models.CanEvent, error) {
	sec, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil || sec < 0 || math.IsInf(sec, 0) || math.IsNaN(sec) {
		return nil, fmt.Errorf("time %q must be a non-negative number", record[0])
	}

	source, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 8)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", record[1], err)
	}

	addrText := strings.TrimSpace(record[2])
	addrText = strings.TrimPrefix(strings.TrimPrefix(addrText, "0x"), "0X")
	address, err := strconv.ParseUint(addrText, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("address %q: %w", record[2], err)
	}

	payload := strings.Join(strings.Fields(record[3]), "")
	data, err := hex.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("payload %q: %w", record[3], err)
	}

	e := &models.CanEvent{
		Source:   uint8(source),
		Address:  uint32(address),
		MonoTime: uint64(math.Round(sec * 1e9)),
		Data:     data,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
