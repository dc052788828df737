// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package spike

import (
	"encoding/csv"
	"io"

	"github.com/grailbio/base/tsv"
)

// WriteCSV writes header followed by rows as comma-separated lines.
func WriteCSV(w io.Writer, header []string, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTSV writes header followed by rows as tab-separated lines.
func WriteTSV(w io.Writer, header []string, rows []Row) error {
	tw := tsv.NewWriter(w)
	for _, h := range header {
		tw.WriteString(h)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, row := range rows {
		for _, f := range row.fields() {
			tw.WriteString(f)
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func (r Row) fields() []string {
	f := make([]string, 0, len(r.Cells)+2)
	f = append(f, r.Sample)
	f = append(f, r.Cells...)
	return append(f, r.Comment)
}
