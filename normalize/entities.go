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

package normalize

import "time"

// The canonical entities. The col tag names the output column, fields are
// listed in the preferred column order.

// SmsMessage is a row of the sms table.
type SmsMessage struct {
	FechaHora       *time.Time `col:"fecha_hora"`
	Numero          string     `col:"numero"`
	TipoCodigo      string     `col:"tipo_codigo"`
	TipoDescripcion string     `col:"tipo_descripcion"`
	Mensaje         string     `col:"mensaje"`
	Fuente          string     `col:"fuente"`
}

// CallLogEntry is a row of the llamadas table.
type CallLogEntry struct {
	FechaHora       *time.Time `col:"fecha_hora"`
	Numero          string     `col:"numero"`
	NombreCache     string     `col:"nombre_cache"`
	TipoCodigo      string     `col:"tipo_codigo"`
	TipoDescripcion string     `col:"tipo_descripcion"`
	DuracionSeg     *int64     `col:"duracion_seg"`
	Fuente          string     `col:"fuente"`
}

// ContactEntry is a row of the contactos table.
type ContactEntry struct {
	Nombre          string `col:"nombre"`
	Numero          string `col:"numero"`
	TipoCodigo      string `col:"tipo_codigo"`
	TipoDescripcion string `col:"tipo_descripcion"`
	Fuente          string `col:"fuente"`
}

// CalendarEvent is a row of the calendario table.
type CalendarEvent struct {
	Inicio     *time.Time `col:"inicio"`
	Fin        *time.Time `col:"fin"`
	Titulo     string     `col:"titulo"`
	Calendario string     `col:"calendario"`
	Ubicacion  string     `col:"ubicacion"`
	Timezone   string     `col:"timezone"`
	Fuente     string     `col:"fuente"`
}

// DownloadEntry is a row of the descargas table.
type DownloadEntry struct {
	FechaHora   *time.Time `col:"fecha_hora"`
	Titulo      string     `col:"titulo"`
	URI         string     `col:"uri"`
	RutaLocal   string     `col:"ruta_local"`
	TipoMime    string     `col:"tipo_mime"`
	TamanoBytes *int64     `col:"tamano_bytes"`
	Fuente      string     `col:"fuente"`
}

// ChatMessage is a row of the whatsapp_mensajes table.
type ChatMessage struct {
	FechaHora    *time.Time `col:"fecha_hora"`
	ChatID       string     `col:"chat_id"`
	Remitente    string     `col:"remitente"`
	Mensaje      string     `col:"mensaje"`
	EnviadoPorMi string     `col:"enviado_por_mi"`
	TipoMedio    string     `col:"tipo_medio"`
	Estado       string     `col:"estado"`
	Fuente       string     `col:"fuente"`
}

// ChatContact is a row of the whatsapp_contactos table.
type ChatContact struct {
	JID    string `col:"jid"`
	Nombre string `col:"nombre"`
	Numero string `col:"numero"`
	Estado string `col:"estado"`
	Fuente string `col:"fuente"`
}

// MediaExifRecord is a row of the exif_media table.
type MediaExifRecord struct {
	RutaArchivo      string     `col:"ruta_archivo"`
	NombreArchivo    string     `col:"nombre_archivo"`
	TipoMedio        string     `col:"tipo_medio"`
	FechaHoraToma    *time.Time `col:"fecha_hora_toma"`
	GpsLatitud       *float64   `col:"gps_latitud"`
	GpsLongitud      *float64   `col:"gps_longitud"`
	PosibleAutor     string     `col:"posible_autor"`
	CamaraFabricante string     `col:"camara_fabricante"`
	CamaraModelo     string     `col:"camara_modelo"`
	Fuente           string     `col:"fuente"`
}

// WifiCredential is a row of the wifi_credenciales table.
type WifiCredential struct {
	SSID           string     `col:"ssid"`
	Password       string     `col:"password"`
	Seguridad      string     `col:"seguridad"`
	BSSID          string     `col:"bssid"`
	UltimaConexion *time.Time `col:"ultima_conexion"`
	Fuente         string     `col:"fuente"`
}

// BrowserHistoryEntry is a row of the historial_navegadores table.
type BrowserHistoryEntry struct {
	FechaHora *time.Time `col:"fecha_hora"`
	URL       string     `col:"url"`
	Titulo    string     `col:"titulo"`
	Visitas   *int64     `col:"visitas"`
	Navegador string     `col:"navegador"`
	Fuente    string     `col:"fuente"`
}

// AccountEntry is a row of the cuentas table.
type AccountEntry struct {
	Tipo          string     `col:"tipo"`
	Cuenta        string     `col:"cuenta"`
	Email         string     `col:"email"`
	App           string     `col:"app"`
	FechaCreacion *time.Time `col:"fecha_creacion"`
	UltimoAcceso  *time.Time `col:"ultimo_acceso"`
	Fuente        string     `col:"fuente"`
}

// EmailMessage is a row of the correos table.
type EmailMessage struct {
	FechaHora     *time.Time `col:"fecha_hora"`
	Remitente     string     `col:"remitente"`
	Destinatarios string     `col:"destinatarios"`
	CC            string     `col:"cc"`
	Asunto        string     `col:"asunto"`
	Carpeta       string     `col:"carpeta"`
	Cuenta        string     `col:"cuenta"`
	App           string     `col:"app"`
	Fuente        string     `col:"fuente"`
	Cuerpo        string     `col:"cuerpo"`
}

// GpsFix is a row of the gps table.
type GpsFix struct {
	FechaHora   *time.Time `col:"fecha_hora"`
	Latitud     *float64   `col:"latitud"`
	Longitud    *float64   `col:"longitud"`
	AltitudM    *float64   `col:"altitud_m"`
	PrecisionM  *float64   `col:"precision_m"`
	VelocidadMS *float64   `col:"velocidad_m_s"`
	Rumbo       *float64   `col:"rumbo"`
	Fuente      string     `col:"fuente"`
}
