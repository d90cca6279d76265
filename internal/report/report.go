// Package report serializes bucketing results.
package report

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/scorebuckets/internal/bucketing"
	"github.com/tensorplex-labs/scorebuckets/internal/loans"
)

const zstdSuffix = ".zst"

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type Report struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	Scores       int                    `json:"scores"`
	Buckets      int                    `json:"buckets"`
	TotalMSE     float64                `json:"total_mse"`
	Ranges       []bucketing.ScoreRange `json:"ranges"`
	Boundaries   []bucketing.Boundary   `json:"boundaries"`
	Shares       []float64              `json:"shares"`
	DefaultRates []loans.RatingStat     `json:"default_rates,omitempty"`
}

func Build(result *bucketing.Result, rates []loans.RatingStat) Report {
	return Report{
		GeneratedAt:  time.Now().UTC(),
		Scores:       len(result.Scores),
		Buckets:      len(result.Boundaries),
		TotalMSE:     result.TotalMSE,
		Ranges:       result.Ranges,
		Boundaries:   result.Boundaries,
		Shares:       result.Shares,
		DefaultRates: rates,
	}
}

// Write encodes the report as JSON, zstd-compressed when compress is set.
func Write(w io.Writer, r Report, compress bool) error {
	data, err := sonic.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}

	if !compress {
		_, err = w.Write(data)
		return errors.Wrap(err, "write report")
	}

	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errors.Wrap(err, "create zstd encoder")
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return errors.Wrap(err, "compress report")
	}
	return errors.Wrap(encoder.Close(), "finalize compression")
}

// WriteFile writes the report to path, compressing it when path ends in .zst.
func WriteFile(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}

	compress := strings.HasSuffix(path, zstdSuffix)
	if err := Write(f, r, compress); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close report file")
	}

	log.Debug().Str("path", path).Bool("compressed", compress).Msg("report written")
	return nil
}

// Read decodes a report written by Write, compressed or not.
func Read(r io.Reader) (Report, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if head, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(head, zstdMagic) {
		decoder, err := zstd.NewReader(br)
		if err != nil {
			return Report{}, errors.Wrap(err, "create zstd decoder")
		}
		defer decoder.Close()
		src = decoder
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return Report{}, errors.Wrap(err, "read report")
	}

	var out Report
	if err := sonic.Unmarshal(data, &out); err != nil {
		return Report{}, errors.Wrap(err, "unmarshal report")
	}
	return out, nil
}
