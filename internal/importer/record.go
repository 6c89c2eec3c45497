package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"
)

// Record is one normalized deal row in the ten-column tab-separated
// exchange format: account, sub account, time, asset code, asset name,
// action, amount, price, money, fee.
type Record struct {
	Account    string
	SubAccount string
	Time       time.Time
	AssetCode  string
	AssetName  string
	Action     string
	Amount     float64
	Price      float64
	Money      float64
	Fee        float64
}

// SortRecords orders records by time, then asset code, then action, the
// canonical order of the exchange format.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Time.Equal(records[j].Time) {
			return records[i].Time.Before(records[j].Time)
		}
		if records[i].AssetCode != records[j].AssetCode {
			return records[i].AssetCode < records[j].AssetCode
		}
		return records[i].Action < records[j].Action
	})
}

// WriteTSV writes records in the ten-column tab-separated format consumed
// by the deal import.
func WriteTSV(w io.Writer, records []Record) error {
	for _, r := range records {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%.4f\t%.2f\t%.2f\n",
			r.Account, r.SubAccount, r.Time.Format("2006-01-02 15:04:05"),
			r.AssetCode, r.AssetName, r.Action,
			r.Amount, r.Price, r.Money, r.Fee)
		if err != nil {
			return err
		}
	}
	return nil
}

// statementReader iterates a broker CSV export with a header row, exposing
// each data row as a column-name lookup.
type statementReader struct {
	reader *csv.Reader
	header map[string]int
}

func newStatementReader(r io.Reader) (*statementReader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	head, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read statement header: %w", err)
	}
	header := make(map[string]int, len(head))
	for i, name := range head {
		header[name] = i
	}
	return &statementReader{reader: reader, header: header}, nil
}

// next returns the following data row, or nil at end of input.
func (s *statementReader) next() (map[string]string, error) {
	row, err := s.reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(s.header))
	for name, i := range s.header {
		if i < len(row) {
			fields[name] = row[i]
		}
	}
	return fields, nil
}
