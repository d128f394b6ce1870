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

package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sebdah/goldie/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

type memTable struct {
	name    string
	columns []string
	rows    [][]string
}

func (t *memTable) Name() string       { return t.name }
func (t *memTable) Columns() []string  { return t.columns }
func (t *memTable) Len() int           { return len(t.rows) }
func (t *memTable) Row(i int) []string { return t.rows[i] }

func smsTable() *memTable {
	return &memTable{
		name:    "sms",
		columns: []string{"fecha_hora", "numero", "tipo_codigo", "tipo_descripcion", "mensaje", "fuente"},
		rows: [][]string{
			{"2024-01-01 10:00:00", "+34600111222", "1", "RECIBIDO", "Hola, qué tal", "logical/sms.txt"},
			{"2024-01-01 11:00:00", "+34600333444", "2", "ENVIADO", "vale", "logical/sms.txt"},
			{"2024-01-02 09:30:00", "+34600111222", "2", "ENVIADO", `Línea "citada"`, "logical/sms.txt"},
		},
	}
}

func callTable() *memTable {
	return &memTable{
		name:    "llamadas",
		columns: []string{"fecha_hora", "numero", "nombre_cache", "tipo_codigo", "tipo_descripcion", "duracion_seg", "fuente"},
		rows: [][]string{
			{"2024-01-01 10:00:00", "600111222", "Ana", "1", "ENTRANTE", "30", "logical/calllog.txt"},
			{"2024-01-01 12:00:00", "600555666", "", "3", "PERDIDA", "0", "logical/calllog.txt"},
			{"2024-01-03 08:00:00", "600111222", "Ana", "2", "SALIENTE", "45", "logical/calllog.txt"},
		},
	}
}

func wifiTable() *memTable {
	return &memTable{
		name:    "wifi_credenciales",
		columns: []string{"ssid", "password", "seguridad", "bssid", "ultima_conexion", "fuente"},
	}
}

func simpleTable(name string, n int) *memTable {
	table := &memTable{name: name, columns: []string{"a", "b"}}
	for i := 0; i < n; i++ {
		table.rows = append(table.rows, []string{fmt.Sprint(i), strings.Repeat("x", i)})
	}
	return table
}

func quiet() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func readFile(t *testing.T, fs afero.Fs, name string) []byte {
	t.Helper()
	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	return data
}

func TestExportTables(t *testing.T) {
	dst := afero.NewMemMapFs()
	e := New(dst, WithLogger(quiet()))

	written, err := e.ExportTables([]Table{smsTable(), callTable(), wifiTable()})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"legible/sms_legible.csv",
		"legible/sms_resumen_por_numero.csv",
		"legible/llamadas_legible.csv",
		"legible/llamadas_resumen_por_numero.csv",
		"legible/wifi_credenciales.csv",
	}, written)

	g := goldie.New(t)
	_ = g.WithFixtureDir("fixtures")
	for _, path := range written {
		name := strings.TrimSuffix(strings.TrimPrefix(path, "legible/"), ".csv")
		g.Assert(t, "TestExportTables_"+name, readFile(t, dst, path))
	}

	files, err := afero.ReadDir(dst, LegibleDir)
	require.NoError(t, err)
	assert.Len(t, files, 5, "no temporary files are left")
}

func TestExportWorkbook(t *testing.T) {
	dst := afero.NewMemMapFs()
	e := New(dst, WithLogger(quiet()), WithCase("caso-1"))
	tables := []Table{
		smsTable(),
		callTable(),
		simpleTable("contactos", 2),
		simpleTable("gps", 1),
		simpleTable("cuentas", 4),
		wifiTable(),
	}

	sheets, err := e.ExportWorkbook(tables)
	require.NoError(t, err)
	require.Len(t, sheets, 6)
	assert.Equal(t, "SMS_MMS", sheets[0].Sheet)
	assert.Equal(t, "WIFI", sheets[5].Sheet)

	f, err := excelize.OpenReader(bytes.NewReader(readFile(t, dst, WorkbookFile)))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"CONTACTOS", "CUENTAS", "UBICACION", "LLAMADAS", "SMS_MMS", "WIFI", "SUMMARY"}, f.GetSheetList())

	description, err := f.GetCellValue("SMS_MMS", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Caso: caso-1 | Mensajes SMS/MMS extraídos del dispositivo.", description)

	rows, err := f.GetRows("SMS_MMS")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, smsTable().columns, rows[3])
	assert.Equal(t, "Hola, qué tal", rows[4][4])

	empty, err := f.GetRows("WIFI")
	require.NoError(t, err)
	require.Len(t, empty, 5)
	assert.Equal(t, []string{"INFO"}, empty[3])
	assert.Equal(t, []string{"Sin registros."}, empty[4])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, []string{"Hoja", "Artefacto", "Filas", "Columnas", "Descripción"}, summary[0])
	assert.Equal(t, []string{"CONTACTOS", "contactos", "2", "2", "Contactos de agenda telefónica."}, summary[1])
	assert.Equal(t, "0", summary[6][2])

	width, err := f.GetColWidth("CUENTAS", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(3), width)
}

func TestExportWorkbook_SheetNames(t *testing.T) {
	dst := afero.NewMemMapFs()
	e := New(dst, WithLogger(quiet()))
	long := strings.Repeat("n", 40)

	sheets, err := e.ExportWorkbook([]Table{
		simpleTable("a:b", 1),
		simpleTable("a/b", 1),
		simpleTable("summary", 1),
		simpleTable(long, 1),
		simpleTable(long+"x", 1),
	})
	require.NoError(t, err)

	var names []string
	for _, s := range sheets {
		names = append(names, s.Sheet)
	}
	assert.Equal(t, []string{"A_B_2", "A_B", "SUMMARY_2", strings.Repeat("N", 31), strings.Repeat("N", 29) + "_2"}, names)
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SMS_MMS", "SMS_MMS"},
		{"forbidden", `a:b\c/d?e*f[g]`, "a_b_c_d_e_f_g_"},
		{"truncated", strings.Repeat("á", 40), strings.Repeat("á", 31)},
		{"empty", "", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSheetName(tt.in))
		})
	}
}

func TestSheetMeta(t *testing.T) {
	name, description := SheetMeta("gps")
	assert.Equal(t, "UBICACION", name)
	assert.NotEmpty(t, description)

	name, description = SheetMeta("usagestats")
	assert.Equal(t, "USAGESTATS", name)
	assert.Equal(t, "Artefacto 'usagestats' extraído del dispositivo.", description)
}

func TestCopyRawArtifacts(t *testing.T) {
	src := afero.NewMemMapFs()
	sms := []byte("Row: 0 address=600, body=hola\n")
	calls := []byte("Row: 0 number=\xff\xfe\n")
	bugreport := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff, 0x10}
	require.NoError(t, afero.WriteFile(src, "logical/sms.txt", sms, 0600))
	require.NoError(t, afero.WriteFile(src, "logical/calllog.txt", calls, 0600))
	require.NoError(t, afero.WriteFile(src, "system/bugreport.zip", bugreport, 0600))
	require.NoError(t, afero.WriteFile(src, "logical/unlisted.txt", sms, 0600))

	log, hook := test.NewNullLogger()
	dst := afero.NewMemMapFs()
	manifest, err := New(dst, WithLogger(log)).CopyRawArtifacts(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, sms, readFile(t, dst, "raw/logical/sms.txt"))
	assert.Equal(t, calls, readFile(t, dst, "raw/logical/calllog.txt"))
	assert.Equal(t, bugreport, readFile(t, dst, "raw/system/bugreport.zip"))
	for _, absent := range []string{"raw/logical/contacts.txt", "raw/logical/unlisted.txt", "raw/system/netcfg.txt"} {
		exists, err := afero.Exists(dst, absent)
		require.NoError(t, err)
		assert.False(t, exists, absent)
	}

	require.Len(t, manifest.Files, 3)
	assert.Equal(t, "logical/calllog.txt", manifest.Files[0].Name)
	assert.Equal(t, "logical/sms.txt", manifest.Files[1].Name)
	assert.Equal(t, int64(len(sms)), manifest.Files[1].Size)
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(sms)), manifest.Files[1].SHA256)

	data := readFile(t, dst, "raw/manifest.json")
	assert.Equal(t, "system/bugreport.zip", gjson.GetBytes(data, "files.2.name").String())

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["file"] == "logical/calllog.txt" {
			warned = true
		}
	}
	assert.True(t, warned, "invalid UTF-8 is logged")
}

func TestCopyRawArtifacts_Empty(t *testing.T) {
	dst := afero.NewMemMapFs()
	manifest, err := New(dst, WithLogger(quiet())).CopyRawArtifacts(context.Background(), afero.NewMemMapFs())
	require.NoError(t, err)
	assert.Empty(t, manifest.Files)
	assert.Equal(t, `{"files":[]}`, gjson.GetBytes(readFile(t, dst, "raw/manifest.json"), "@ugly").String())
}

func Test_utf8Check(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   bool
	}{
		{"ascii", []string{"abc", "def"}, true},
		{"split rune", []string{"a\xc3", "\xb1b"}, true},
		{"split four byte rune", []string{"\xf0\x9f", "\x98", "\x80"}, true},
		{"invalid byte", []string{"a\xffb"}, false},
		{"truncated at end", []string{"ab\xc3"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newUTF8Check()
			for _, chunk := range tt.chunks {
				_, err := c.Write([]byte(chunk))
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, c.valid())
		})
	}
}

func TestExportPaginatedReport(t *testing.T) {
	dst := afero.NewMemMapFs()
	e := New(dst, WithLogger(quiet()), WithMaxRows(10))

	err := e.ExportPaginatedReport([]Table{smsTable(), simpleTable("gps", 250), wifiTable()})
	require.NoError(t, err)

	data := readFile(t, dst, ReportFile)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

// failingFs fails to create one file.
type failingFs struct {
	afero.Fs
	name string
}

func (fs *failingFs) Create(name string) (afero.File, error) {
	if name == fs.name {
		return nil, errors.New("disk full")
	}
	return fs.Fs.Create(name)
}

func TestRun(t *testing.T) {
	src := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(src, "logical/sms.txt", []byte("Row: 0 body=x\n"), 0600))
	dst := afero.NewMemMapFs()

	report, err := New(dst, WithLogger(quiet())).Run(context.Background(), src, []Table{smsTable(), wifiTable()})
	require.NoError(t, err)

	for _, sink := range []string{"raw", "csv", "workbook", "pdf"} {
		require.NotNil(t, report.Sink(sink), sink)
		assert.Equal(t, Written, report.Sink(sink).Status, sink)
	}
	require.Len(t, report.Tables, 2)
	assert.Equal(t, TableSummary{Name: "sms", Sheet: "SMS_MMS", Rows: 3, Columns: 6}, report.Tables[0])
	assert.Equal(t, TableSummary{Name: "wifi_credenciales", Sheet: "WIFI", Rows: 0, Columns: 6}, report.Tables[1])
	require.NotNil(t, report.Manifest)
	assert.Len(t, report.Manifest.Files, 1)

	data := readFile(t, dst, SummaryFile)
	assert.Equal(t, int64(4), gjson.GetBytes(data, "sinks.#").Int())
	assert.Equal(t, "SMS_MMS", gjson.GetBytes(data, "tables.0.sheet").String())
}

func TestRun_WorkbookFails(t *testing.T) {
	dst := &failingFs{Fs: afero.NewMemMapFs(), name: WorkbookFile + ".tmp"}

	report, err := New(dst, WithLogger(quiet()), WithPDF(false)).Run(context.Background(), afero.NewMemMapFs(), []Table{smsTable()})
	require.NoError(t, err)

	assert.Equal(t, Written, report.Sink("csv").Status)
	assert.Equal(t, Failed, report.Sink("workbook").Status)
	assert.Contains(t, report.Sink("workbook").Error, "disk full")
	assert.Equal(t, Skipped, report.Sink("pdf").Status)
	assert.Empty(t, report.Tables[0].Sheet)

	exists, err := afero.Exists(dst, "legible/sms_legible.csv")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = afero.Exists(dst, WorkbookFile)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(src, "logical/sms.txt", []byte("x"), 0600))
	_, err := New(afero.NewMemMapFs(), WithLogger(quiet())).Run(ctx, src, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFailure(t *testing.T) {
	err := fail("pdf", os.ErrPermission)
	assert.ErrorIs(t, err, ErrExport)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, "pdf: permission denied", err.Error())
	assert.NoError(t, fail("pdf", nil))
}
