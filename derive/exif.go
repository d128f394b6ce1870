/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package derive

import (
	"archive/tar"
	"bytes"
	"context"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/forensicanalysis/fsdoublestar"
	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".heic": true, ".webp": true}

var mediaPatterns = []string{"media/**", "apps/whatsapp/**"}

var exifHeader = []string{
	"file", "datetime_original", "datetime_digitized", "make", "model", "software",
	"artist_owner", "width", "height", "gps_lat", "gps_lon", "gps_alt",
}

// ExifInventory lists every acquired image, loose or inside a media archive,
// with its EXIF camera, time and GPS data. Coordinates are decimal degrees.
func (d *Deriver) ExifInventory(ctx context.Context) (int, error) {
	fsys := afero.NewIOFS(d.store.Fs())

	seen := map[string]bool{}
	var files []string
	for _, pattern := range mediaPatterns {
		if ok, _ := afero.DirExists(d.store.Fs(), strings.TrimSuffix(pattern, "/**")); !ok {
			continue
		}
		matches, err := fsdoublestar.Glob(fsys, pattern)
		if err != nil {
			return 0, errors.Wrapf(err, "glob %s", pattern)
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				files = append(files, match)
			}
		}
	}
	sort.Strings(files)

	var rows [][]string
	var inputs []string
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		ext := strings.ToLower(path.Ext(name))
		if ext != ".tar" && !imageExtensions[ext] {
			continue
		}
		info, err := d.store.Fs().Stat(name)
		if err != nil || info.IsDir() {
			continue
		}

		var found [][]string
		if ext == ".tar" {
			found, err = d.scanArchive(ctx, name)
		} else {
			found, err = d.scanFile(name)
		}
		if err != nil {
			d.log.WithError(err).WithField("path", name).Warn("could not scan media")
			continue
		}
		if len(found) > 0 {
			inputs = append(inputs, name)
			rows = append(rows, found...)
		}
	}

	if len(rows) == 0 {
		return 0, errors.Wrap(ErrNoInput, "no images acquired")
	}
	return len(rows), d.writeCSV(ExifInventoryCSV, "exif_inventory", inputs, exifHeader, rows)
}

func (d *Deriver) scanFile(name string) ([][]string, error) {
	f, err := d.store.LoadFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	row, err := d.inspect(name, f)
	if err != nil || row == nil {
		return nil, err
	}
	return [][]string{row}, nil
}

// scanArchive inspects the images inside a tar archive. They are listed as
// "<archive>:<member>".
func (d *Deriver) scanArchive(ctx context.Context, name string) ([][]string, error) {
	f, err := d.store.LoadFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]string
	tr := tar.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		header, err := tr.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			// a truncated archive still lists the images read so far
			d.log.WithError(err).WithField("path", name).Warn("archive truncated")
			return rows, nil
		}
		if header.Typeflag != tar.TypeReg || !imageExtensions[strings.ToLower(path.Ext(header.Name))] {
			continue
		}
		row, err := d.inspect(name+":"+strings.TrimPrefix(header.Name, "./"), tr)
		if err != nil {
			return rows, err
		}
		if row != nil {
			rows = append(rows, row)
		}
	}
}

// inspect reads one image and returns its inventory row, nil if the image
// exceeds the size limit.
func (d *Deriver) inspect(name string, r io.Reader) ([]string, error) {
	data, err := io.ReadAll(io.LimitReader(r, d.maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.maxImageSize {
		d.log.WithField("path", name).Info("image too large for inspection")
		return nil, nil
	}

	row := make([]string, len(exifHeader))
	row[0] = name

	x, err := exif.Decode(bytes.NewReader(data))
	if x != nil && (err == nil || !exif.IsCriticalError(err)) {
		row[1] = tagString(x, exif.DateTimeOriginal)
		row[2] = tagString(x, exif.DateTimeDigitized)
		row[3] = tagString(x, exif.Make)
		row[4] = tagString(x, exif.Model)
		row[5] = tagString(x, exif.Software)
		row[6] = tagString(x, exif.Artist)
		row[7] = tagInt(x, exif.PixelXDimension)
		row[8] = tagInt(x, exif.PixelYDimension)
		if lat, long, err := x.LatLong(); err == nil {
			row[9] = formatFloat(lat)
			row[10] = formatFloat(long)
		}
		if tag, err := x.Get(exif.GPSAltitude); err == nil {
			if num, den, err := tag.Rat2(0); err == nil && den != 0 {
				row[11] = formatFloat(float64(num) / float64(den))
			}
		}
	}
	if row[7] == "" || row[8] == "" {
		if config, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			row[7] = strconv.Itoa(config.Width)
			row[8] = strconv.Itoa(config.Height)
		}
	}
	return row, nil
}

func tagString(x *exif.Exif, field exif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func tagInt(x *exif.Exif, field exif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	i, err := tag.Int(0)
	if err != nil {
		return ""
	}
	return strconv.Itoa(i)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
