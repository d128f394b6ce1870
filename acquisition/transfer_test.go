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

package acquisition

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/androidcollector/bridge/bridgetest"
)

const (
	fooMD5    = "acbd18db4cc2f85cedef654fccc4a4d8"
	fooSHA1   = "0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33"
	fooSHA256 = "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"
)

func newDevice() *bridgetest.Fake {
	device := bridgetest.New()
	device.Files["/data/data/com.android.providers.telephony/databases/mmssms.db"] = []byte("foo")
	device.Files["/sdcard/empty"] = []byte{}
	device.Dirs["/data/misc/wifi"] = []byte("tarball")
	device.Blocks["/dev/block/by-name/userdata"] = []byte("image")
	device.Queries["content query --uri content://sms/"] = "Row: 0 address=123, body=hi\n"
	device.Queries["content query --uri content://calendar/events"] = ""
	return device
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name     string
		run      func(t *Transfer) (*Transferred, error)
		dest     string
		want     string
		wantCall string
		wantErr  bool
	}{
		{"file", func(tr *Transfer) (*Transferred, error) {
			return tr.TransferFile(context.Background(), "/data/data/com.android.providers.telephony/databases/mmssms.db", "databases/mmssms.db")
		}, "databases/mmssms.db", "foo", "su -c cat /data/data/com.android.providers.telephony/databases/mmssms.db", false},
		{"directory", func(tr *Transfer) (*Transferred, error) {
			return tr.TransferDirectoryArchive(context.Background(), "/data/misc/wifi", "system/wifi_misc.tar")
		}, "system/wifi_misc.tar", "tarball", "su -c tar -cf - -C /data/misc/wifi .", false},
		{"block", func(tr *Transfer) (*Transferred, error) {
			return tr.TransferBlockDevice(context.Background(), "/dev/block/by-name/userdata", "images/userdata.img", "4M")
		}, "images/userdata.img", "image", "su -c dd if=/dev/block/by-name/userdata bs=4M", false},
		{"query", func(tr *Transfer) (*Transferred, error) {
			return tr.TransferQuery(context.Background(), []string{"content", "query", "--uri", "content://sms/"}, "logical/sms.txt")
		}, "logical/sms.txt", "Row: 0 address=123, body=hi\n", "su -c content query --uri content://sms/", false},
		{"empty query", func(tr *Transfer) (*Transferred, error) {
			return tr.TransferQuery(context.Background(), []string{"content", "query", "--uri", "content://calendar/events"}, "logical/calendar_events.txt")
		}, "logical/calendar_events.txt", "", "su -c content query --uri content://calendar/events", false},
		{"empty file", func(tr *Transfer) (*Transferred, error) {
			return tr.TransferFile(context.Background(), "/sdcard/empty", "media/empty")
		}, "media/empty", "", "su -c cat /sdcard/empty", true},
		{"missing file", func(tr *Transfer) (*Transferred, error) {
			return tr.TransferFile(context.Background(), "/sdcard/missing", "media/missing")
		}, "media/missing", "", "su -c cat /sdcard/missing", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := newDevice()
			fs := afero.NewMemMapFs()
			tr := NewTransfer(device, fs, true)

			got, err := tt.run(tr)
			assert.Contains(t, device.Calls(), tt.wantCall)
			exists, _ := afero.Exists(fs, tt.dest+partialSuffix)
			assert.False(t, exists, "partial file left behind")

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTransfer)
				exists, _ := afero.Exists(fs, tt.dest)
				assert.False(t, exists)
				return
			}
			require.NoError(t, err)
			b, err := afero.ReadFile(fs, tt.dest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
			assert.Equal(t, int64(len(tt.want)), got.Bytes)
		})
	}
}

func TestTransfer_Hashes(t *testing.T) {
	tr := NewTransfer(newDevice(), afero.NewMemMapFs(), false)
	got, err := tr.TransferFile(context.Background(), "/data/data/com.android.providers.telephony/databases/mmssms.db", "databases/mmssms.db")
	require.NoError(t, err)
	assert.Equal(t, Hashes{MD5: fooMD5, SHA1: fooSHA1, SHA256: fooSHA256}, got.Hashes)
}

func TestTransfer_BrokenStream(t *testing.T) {
	device := newDevice()
	device.Blocks["/dev/block/by-name/userdata"] = make([]byte, 3*1024*1024)
	device.FailAfter["/dev/block/by-name/userdata"] = 1024 * 1024
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "images/userdata.img", []byte("previous"), 0644))

	_, err := NewTransfer(device, fs, true).TransferBlockDevice(context.Background(), "/dev/block/by-name/userdata", "images/userdata.img", "4M")

	var failure *TransferFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, int64(1024*1024), failure.Bytes)
	exists, _ := afero.Exists(fs, "images/userdata.img"+partialSuffix)
	assert.False(t, exists)
	b, _ := afero.ReadFile(fs, "images/userdata.img")
	assert.Equal(t, "previous", string(b))
}

type cancellingBridge struct {
	*bridgetest.Fake
	cancel context.CancelFunc
}

func (b *cancellingBridge) StreamOut(ctx context.Context, argv []string) (io.ReadCloser, error) {
	rc, err := b.Fake.StreamOut(ctx, argv)
	if err != nil {
		return nil, err
	}
	return &cancellingReader{ReadCloser: rc, cancel: b.cancel}, nil
}

type cancellingReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancellingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p[:1])
	r.cancel()
	return n, err
}

func TestTransfer_CancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	device := &cancellingBridge{Fake: newDevice(), cancel: cancel}
	fs := afero.NewMemMapFs()

	_, err := NewTransfer(device, fs, true).TransferBlockDevice(ctx, "/dev/block/by-name/userdata", "images/userdata.img", "4M")
	assert.ErrorIs(t, err, ErrTransfer)
	assert.ErrorIs(t, err, ErrCancelled)

	var failure *TransferFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, int64(1), failure.Bytes)
	exists, _ := afero.Exists(fs, "images/userdata.img")
	assert.False(t, exists)
}
