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
package align

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/zip"
)

// ExtractIfZip returns src unchanged if it is a directory.  Otherwise src must
// be a zip archive; its members named *.<ext> are extracted flat into dstDir,
// which is returned.  Members in subdirectories keep only their base name.
func ExtractIfZip(ctx context.Context, src, dstDir, ext string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", errors.E(fmt.Sprintf("align: reads %s", src), err)
	}
	if info.IsDir() {
		return src, nil
	}
	zr, err := zip.OpenReader(src)
	if err != nil {
		return "", errors.E(errors.Invalid, fmt.Sprintf("align: %s is neither a directory nor a zip file", src), err)
	}
	defer zr.Close() // nolint: errcheck
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", err
	}
	n := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, "."+ext) {
			continue
		}
		if err := extract(ctx, f, filepath.Join(dstDir, filepath.Base(f.Name))); err != nil {
			return "", errors.E(fmt.Sprintf("align: extract %s from %s", f.Name, src), err)
		}
		n++
	}
	log.Printf("align: extracted %d .%s files from %s", n, ext, src)
	return dstDir, nil
}

func extract(ctx context.Context, f *zip.File, dst string) (err error) {
	in, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		if e := in.Close(); e != nil && err == nil {
			err = e
		}
	}()
	out, err := file.Create(ctx, dst)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	_, err = io.Copy(out.Writer(ctx), in)
	return err
}

// ZipDir writes every regular file under dir into a zip archive at zipPath,
// with member names relative to dir.
func ZipDir(ctx context.Context, dir, zipPath string) (err error) {
	out, err := file.Create(ctx, zipPath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	zw := zip.NewWriter(out.Writer(ctx))
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.Mode().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close() // nolint: errcheck
		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		return errors.E(fmt.Sprintf("align: zip %s", dir), err)
	}
	return zw.Close()
}
