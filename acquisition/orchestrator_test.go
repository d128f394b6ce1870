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
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/androidcollector/bridge/bridgetest"
	"github.com/forensicanalysis/androidcollector/catalog"
	"github.com/forensicanalysis/androidcollector/config"
	"github.com/forensicanalysis/androidcollector/rawstore"
)

type OrchestratorTestSuite struct {
	suite.Suite
	device *bridgetest.Fake
	store  *rawstore.Store
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.device = newDevice()
	store, err := rawstore.NewMemory()
	s.Require().NoError(err)
	s.store = store
}

func (s *OrchestratorTestSuite) TearDownTest() {
	s.store.Close()
}

func (s *OrchestratorTestSuite) catalog(specs ...catalog.ArtifactSpec) *catalog.Catalog {
	c, err := catalog.New(specs...)
	s.Require().NoError(err)
	return c
}

func (s *OrchestratorTestSuite) run(tier config.Tier, c *catalog.Catalog, opts ...Option) *Report {
	report, err := NewOrchestrator(s.device, s.store, tier, opts...).Run(context.Background(), c)
	s.Require().NoError(err)
	s.Require().Len(report.Results, c.Len())
	return report
}

func (s *OrchestratorTestSuite) TestOneArtifactFails() {
	c := s.catalog(
		catalog.NewArtifactSpec("sms", catalog.Logical, catalog.LogicalQuery, "sms.txt", "content query --uri content://sms/"),
		catalog.NewArtifactSpec("msgstore", catalog.Apps, catalog.SingleFile, "whatsapp/msgstore.db",
			"/data/data/com.whatsapp/databases/msgstore.db", "/data/user/0/com.whatsapp/databases/msgstore.db"),
		catalog.NewArtifactSpec("mmssms", catalog.Databases, catalog.SingleFile, "mmssms.db",
			"/data/user/0/com.android.providers.telephony/databases/mmssms.db",
			"/data/data/com.android.providers.telephony/databases/mmssms.db"),
	)

	report := s.run(config.Root, c)

	sms, _ := report.Result("sms")
	s.Equal(Succeeded, sms.Status)
	s.Equal("content query --uri content://sms/", sms.Source)

	msgstore, _ := report.Result("msgstore")
	s.Equal(Failed, msgstore.Status)
	s.Equal(KindResolution, msgstore.ErrorKind)
	s.Contains(msgstore.ErrorDetail, "/data/user/0/com.whatsapp/databases/msgstore.db: not reachable")
	s.Nil(msgstore.Hashes)

	mmssms, _ := report.Result("mmssms")
	s.Equal(Succeeded, mmssms.Status)
	s.Equal("/data/data/com.android.providers.telephony/databases/mmssms.db", mmssms.Source)
	s.Equal(int64(3), mmssms.Bytes)
	s.Equal(fooSHA256, mmssms.Hashes.SHA256)
	s.Equal("databases/mmssms.db", mmssms.LocalPath)

	b, err := afero.ReadFile(s.store.Fs(), "databases/mmssms.db")
	s.Require().NoError(err)
	s.Equal("foo", string(b))

	s.Equal(2, report.Count(Succeeded))
	s.Equal(1, report.Count(Failed))
	s.LessOrEqual(s.device.MaxInFlight(), 1)
}

func (s *OrchestratorTestSuite) TestOrderAndPrivileges() {
	c := s.catalog(
		catalog.NewArtifactSpec("wifi", catalog.System, catalog.DirectoryArchive, "wifi_misc.tar", "/data/misc/wifi"),
		catalog.NewArtifactSpec("sms", catalog.Logical, catalog.LogicalQuery, "sms.txt", "content query --uri content://sms/"),
	)
	s.device.Root = true

	report := s.run(config.Root, c)
	s.Equal("sms", report.Results[0].ArtifactID)
	s.Equal("wifi", report.Results[1].ArtifactID)
	s.True(report.Root.IsRoot)

	calls := s.device.Calls()
	s.Contains(calls, "su -c id")
	s.Contains(calls, "su -c command -v content")
	s.Contains(calls, "su -c content query --uri content://sms/")
	s.NotContains(calls, "content query --uri content://sms/")
	s.Contains(calls, "su -c test -d /data/misc/wifi")
	s.Contains(calls, "su -c tar -cf - -C /data/misc/wifi .")
}

func (s *OrchestratorTestSuite) TestNoRootIsUnprivileged() {
	c := s.catalog(
		catalog.NewArtifactSpec("mmssms", catalog.Databases, catalog.SingleFile, "mmssms.db",
			"/data/data/com.android.providers.telephony/databases/mmssms.db"),
		catalog.NewArtifactSpec("sms", catalog.Logical, catalog.LogicalQuery, "sms.txt", "content query --uri content://sms/"),
	)

	report := s.run(config.NoRoot, c)
	s.False(report.Root.Checked)
	calls := s.device.Calls()
	s.Contains(calls, "cat /data/data/com.android.providers.telephony/databases/mmssms.db")
	s.Contains(calls, "command -v content")
	s.Contains(calls, "content query --uri content://sms/")
	s.NotContains(calls, "su -c id")
	s.NotContains(calls, "su -c command -v content")
}

func (s *OrchestratorTestSuite) TestSkipped() {
	c := s.catalog(
		catalog.NewArtifactSpec("sms", catalog.Logical, catalog.LogicalQuery, "sms.txt", "content query --uri content://sms/").WithEnabled(false),
		catalog.NewArtifactSpec("image", catalog.Images, catalog.BlockCopy, "userdata.img", "/dev/block/by-name/userdata").WithConfirmation(),
	)

	report := s.run(config.Root, c)
	sms, _ := report.Result("sms")
	s.Equal(Skipped, sms.Status)
	s.Equal(KindDisabled, sms.ErrorKind)
	image, _ := report.Result("image")
	s.Equal(Skipped, image.Status)
	s.Equal(KindUnconfirmed, image.ErrorKind)
	s.NotContains(s.device.Calls(), "su -c dd if=/dev/block/by-name/userdata bs=4M")

	report = s.run(config.Root, c, WithConfirm(ConfirmAll), WithBlockSize("1M"))
	image, _ = report.Result("image")
	s.Equal(Succeeded, image.Status)
	s.Contains(s.device.Calls(), "su -c dd if=/dev/block/by-name/userdata bs=1M")
}

func (s *OrchestratorTestSuite) TestCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := s.catalog(
		catalog.NewArtifactSpec("sms", catalog.Logical, catalog.LogicalQuery, "sms.txt", "content query --uri content://sms/"),
		catalog.NewArtifactSpec("wifi", catalog.System, catalog.DirectoryArchive, "wifi_misc.tar", "/data/misc/wifi"),
	)

	report, err := NewOrchestrator(s.device, s.store, config.NoRoot).Run(ctx, c)
	s.Require().NoError(err)
	s.Require().Len(report.Results, 2)
	for _, result := range report.Results {
		s.Equal(Failed, result.Status)
		s.Equal(KindCancelled, result.ErrorKind)
	}
}

func (s *OrchestratorTestSuite) TestMisconfigured() {
	_, err := NewOrchestrator(s.device, s.store, config.NoRoot).Run(context.Background(), nil)
	s.ErrorIs(err, ErrCatalog)

	c := s.catalog(catalog.NewArtifactSpec("sms", catalog.Logical, catalog.LogicalQuery, "sms.txt", "content query --uri content://sms/"))
	_, err = NewOrchestrator(s.device, nil, config.NoRoot).Run(context.Background(), c)
	s.ErrorIs(err, ErrCatalog)

	_, err = NewOrchestrator(s.device, s.store, config.NoRoot, WithBlockSize("huge")).Run(context.Background(), c)
	s.ErrorIs(err, ErrCatalog)
	s.Empty(s.device.Calls())
}

func (s *OrchestratorTestSuite) TestEvents() {
	c := s.catalog(
		catalog.NewArtifactSpec("sms", catalog.Logical, catalog.LogicalQuery, "sms.txt", "content query --uri content://sms/"),
		catalog.NewArtifactSpec("missing", catalog.Apps, catalog.SingleFile, "missing.db", "/data/missing.db"),
		catalog.NewArtifactSpec("off", catalog.Apps, catalog.SingleFile, "off.db", "/data/off.db").WithEnabled(false),
	)

	events := make(chan ProgressEvent)
	var got []ProgressEvent
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range events {
			got = append(got, event)
		}
	}()
	s.run(config.NoRoot, c, WithEvents(events))
	close(events)
	wg.Wait()

	var states []State
	for _, event := range got {
		states = append(states, event.State)
	}
	s.Equal([]State{
		StatePending, StateResolving, StateTransferring, StateSucceeded,
		StatePending, StateResolving, StateFailed,
		StatePending, StateSkipped,
	}, states)
	s.Error(got[6].Err)
	s.Equal(int64(len("Row: 0 address=123, body=hi\n")), got[3].Bytes)
}

func (s *OrchestratorTestSuite) TestCustody() {
	c := s.catalog(
		catalog.NewArtifactSpec("sms", catalog.Logical, catalog.LogicalQuery, "sms.txt", "content query --uri content://sms/"),
		catalog.NewArtifactSpec("mmssms", catalog.Databases, catalog.SingleFile, "mmssms.db",
			"/data/data/com.android.providers.telephony/databases/mmssms.db"),
	)
	s.run(config.NoRoot, c)

	files, err := s.store.Where(map[string]string{"type": "file"})
	s.Require().NoError(err)
	s.Len(files, 2)

	processes, err := s.store.Where(map[string]string{"type": "process"})
	s.Require().NoError(err)
	s.Require().Len(processes, 1)
	s.Equal("logical/sms.txt", gjson.GetBytes(processes[0], "stdout_path").String())

	elements, err := s.store.Where(map[string]string{"export_path": "databases/mmssms.db"})
	s.Require().NoError(err)
	s.Require().Len(elements, 1)
	s.Equal(fooMD5, gjson.GetBytes(elements[0], "hashes.MD5").String())
	s.Equal("/data/data/com.android.providers.telephony/databases/mmssms.db", gjson.GetBytes(elements[0], "origin.source").String())

	flaws, err := s.store.Validate()
	s.Require().NoError(err)
	s.Empty(flaws)

	report, err := LoadReport(s.store.Fs())
	s.Require().NoError(err)
	s.Len(report.Results, 2)
	s.Equal(config.NoRoot, report.Tier)
}

func (s *OrchestratorTestSuite) TestMetrics() {
	before := testutil.ToFloat64(artifactsTotal.WithLabelValues(string(Failed), string(catalog.Media)))
	c := s.catalog(catalog.NewArtifactSpec("dcim", catalog.Media, catalog.DirectoryArchive, "DCIM.tar", "/sdcard/DCIM"))
	s.run(config.NoRoot, c)
	s.Equal(before+1, testutil.ToFloat64(artifactsTotal.WithLabelValues(string(Failed), string(catalog.Media))))
}

func TestOrchestratorTestSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
