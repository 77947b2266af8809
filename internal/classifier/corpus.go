package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ternarybob/marketmood/internal/models"
	"github.com/ternarybob/marketmood/internal/textenc"
)

// SentimentColumn is the corpus header naming the label column
const SentimentColumn = "Sentiment"

// CorpusStats describes how many corpus rows were kept
type CorpusStats struct {
	Rows       int // Data rows read
	Kept       int
	Unlabeled  int // Dropped for a blank or unrecognized sentiment
	Incomplete int // Dropped for a blank, non-numeric or negative emotion cell
}

// LoadCorpus reads a tab-separated table with a header row naming at least the
// five emotion columns and Sentiment. Input may be UTF-16 with a byte order mark or
// UTF-8. Rows with a blank sentiment or any unusable emotion cell (blank, non-numeric,
// non-finite or negative) are dropped, so a
// previously written output file is itself a valid corpus.
func LoadCorpus(r io.Reader) ([]TrainingRow, CorpusStats, error) {
	var stats CorpusStats

	reader := csv.NewReader(textenc.NewReader(r))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("%w: corpus is empty", ErrCorpusHeader)
		}
		return nil, stats, fmt.Errorf("failed to read corpus header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	required := append(append([]string{}, models.EmotionNames...), SentimentColumn)
	positions := make([]int, len(required))
	for i, name := range required {
		pos, ok := columns[strings.ToLower(name)]
		if !ok {
			return nil, stats, fmt.Errorf("%w: %s", ErrCorpusHeader, name)
		}
		positions[i] = pos
	}
	sentimentPos := positions[len(positions)-1]
	emotionPos := positions[:len(positions)-1]

	var rows []TrainingRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read corpus row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		label := models.ParseSentiment(cell(record, sentimentPos))
		if !label.IsSet() {
			stats.Unlabeled++
			continue
		}

		scores := make(map[string]float64, len(models.EmotionNames))
		for i, name := range models.EmotionNames {
			value, err := strconv.ParseFloat(cell(record, emotionPos[i]), 64)
			if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
				break
			}
			scores[name] = value
		}
		vector := models.EmotionVectorFromMap(scores)
		if !vector.Complete() {
			stats.Incomplete++
			continue
		}

		rows = append(rows, TrainingRow{Emotion: vector, Label: label})
	}

	stats.Kept = len(rows)
	return rows, stats, nil
}

// LoadCorpusFile reads the corpus at path
func LoadCorpusFile(path string) ([]TrainingRow, CorpusStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CorpusStats{}, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer f.Close()
	return LoadCorpus(f)
}

func cell(record []string, pos int) string {
	if pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
