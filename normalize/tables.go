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

// sourceKind tells how the sources of a table are read and combined.
type sourceKind int

const (
	// rowDump sources are content query dumps with "Row:" lines.
	rowDump sourceKind = iota
	// csvFirst reads the first CSV source that exists.
	csvFirst
	// csvAll appends every CSV source that exists.
	csvAll
)

type source struct {
	rel   string
	label string
}

type definition struct {
	name    string
	proto   interface{}
	kind    sourceKind
	sources []source
	order   ordering
	build   func(r *record, src source) interface{}
}

func sources(rels ...string) []source {
	var s []source
	for _, rel := range rels {
		s = append(s, source{rel: rel})
	}
	return s
}

// definitions lists the tables in their canonical order.
var definitions = []definition{
	{
		name: "sms", proto: &SmsMessage{}, kind: rowDump,
		sources: sources("logical/sms.txt"),
		order:   byTime("fecha_hora"),
		build: func(r *record, src source) interface{} {
			code := r.pick("tipo_codigo", "type")
			return &SmsMessage{
				FechaHora:       r.epoch("fecha_hora", "date"),
				Numero:          r.pick("numero", "address"),
				TipoCodigo:      code,
				TipoDescripcion: SmsTypes.Label(code),
				Mensaje:         r.pick("mensaje", "body"),
				Fuente:          src.rel,
			}
		},
	},
	{
		name: "contactos", proto: &ContactEntry{}, kind: rowDump,
		sources: sources("logical/contacts.txt"),
		order:   byText("nombre", "numero"),
		build: func(r *record, src source) interface{} {
			code := r.pick("tipo_codigo", "data2", "type")
			return &ContactEntry{
				Nombre:          r.pick("nombre", "display_name", "name"),
				Numero:          r.pick("numero", "data1", "number", "data4"),
				TipoCodigo:      code,
				TipoDescripcion: PhoneTypes.Label(code),
				Fuente:          src.rel,
			}
		},
	},
	{
		name: "llamadas", proto: &CallLogEntry{}, kind: rowDump,
		sources: sources("logical/calllog.txt"),
		order:   byTime("fecha_hora"),
		build: func(r *record, src source) interface{} {
			code := r.pick("tipo_codigo", "type")
			return &CallLogEntry{
				FechaHora:       r.epoch("fecha_hora", "date"),
				Numero:          r.pick("numero", "number"),
				NombreCache:     r.pick("nombre_cache", "name"),
				TipoCodigo:      code,
				TipoDescripcion: CallTypes.Label(code),
				DuracionSeg:     digitsOnly(r.pick("duracion_seg", "duration")),
				Fuente:          src.rel,
			}
		},
	},
	{
		name: "calendario", proto: &CalendarEvent{}, kind: rowDump,
		sources: sources("logical/calendar_events.txt"),
		order:   byTime("inicio"),
		build: func(r *record, src source) interface{} {
			return &CalendarEvent{
				Inicio:     r.epoch("inicio", "dtstart"),
				Fin:        r.epoch("fin", "dtend"),
				Titulo:     r.pick("titulo", "title"),
				Calendario: r.pick("calendario", "calendar_displayName"),
				Ubicacion:  r.pick("ubicacion", "eventLocation"),
				Timezone:   r.pick("timezone", "eventTimezone"),
				Fuente:     src.rel,
			}
		},
	},
	{
		name: "whatsapp_mensajes", proto: &ChatMessage{}, kind: csvFirst,
		sources: sources("apps/whatsapp/whatsapp_messages.csv"),
		order:   byTime("fecha_hora"),
		build: func(r *record, src source) interface{} {
			return &ChatMessage{
				FechaHora:    r.date("fecha_hora", "timestamp_ms", "timestamp", "ts", "fecha"),
				ChatID:       r.pick("chat_id", "chat_jid", "key_remote_jid", "jid", "id_chat"),
				Remitente:    r.pick("remitente", "remote_resource", "sender", "remitente"),
				Mensaje:      r.pick("mensaje", "data", "mensaje", "body", "text"),
				EnviadoPorMi: r.pick("enviado_por_mi", "from_me", "key_from_me"),
				TipoMedio:    r.pick("tipo_medio", "media_type", "media_wa_type"),
				Estado:       r.pick("estado", "status"),
				Fuente:       src.rel,
			}
		},
	},
	{
		name: "whatsapp_contactos", proto: &ChatContact{}, kind: csvFirst,
		sources: sources("apps/whatsapp/whatsapp_contacts.csv"),
		order:   byText("nombre", "jid"),
		build: func(r *record, src source) interface{} {
			return &ChatContact{
				JID:    r.pick("jid", "jid"),
				Nombre: r.pick("nombre", "display_name", "name"),
				Numero: r.pick("numero", "number"),
				Estado: r.pick("estado", "status"),
				Fuente: src.rel,
			}
		},
	},
	{
		name: "exif_media", proto: &MediaExifRecord{}, kind: csvFirst,
		sources: sources("media_exif_inventory.csv"),
		order:   byTime("fecha_hora_toma"),
		build: func(r *record, src source) interface{} {
			return &MediaExifRecord{
				RutaArchivo:      r.pick("ruta_archivo", "file", "path", "ruta", "file_path"),
				NombreArchivo:    r.pick("nombre_archivo", "file_name", "filename", "nombre_archivo", "name"),
				TipoMedio:        r.pick("tipo_medio", "mime_type", "content_type", "tipo"),
				FechaHoraToma:    r.date("fecha_hora_toma", "datetime_original", "date_time_original", "fecha_hora_toma", "date_taken"),
				GpsLatitud:       r.number("gps_latitud", "gps_lat", "gps_latitude", "lat", "latitude"),
				GpsLongitud:      r.number("gps_longitud", "gps_lon", "gps_longitude", "lon", "lng", "longitude"),
				PosibleAutor:     r.pick("posible_autor", "artist_owner", "artist", "author", "creador"),
				CamaraFabricante: r.pick("camara_fabricante", "make", "camera_make", "fabricante"),
				CamaraModelo:     r.pick("camara_modelo", "model", "camera_model", "modelo"),
				Fuente:           src.rel,
			}
		},
	},
	{
		name: "descargas", proto: &DownloadEntry{}, kind: rowDump,
		sources: sources("logical/downloads.txt"),
		order:   byTime("fecha_hora"),
		build: func(r *record, src source) interface{} {
			return &DownloadEntry{
				FechaHora:   r.epoch("fecha_hora", "lastmod"),
				Titulo:      r.pick("titulo", "title"),
				URI:         r.pick("uri", "uri"),
				RutaLocal:   r.pick("ruta_local", "_data", "local_filename"),
				TipoMime:    r.pick("tipo_mime", "mimetype"),
				TamanoBytes: r.integer("tamano_bytes", "total_bytes"),
				Fuente:      src.rel,
			}
		},
	},
	{
		name: "historial_navegadores", proto: &BrowserHistoryEntry{}, kind: csvAll,
		sources: []source{
			{rel: "apps/chrome/history.csv", label: "Chrome"},
			{rel: "apps/chrome/history_full.csv", label: "Chrome"},
			{rel: "apps/sbrowser/history.csv", label: "SamsungInternet"},
			{rel: "apps/brave/history.csv", label: "Brave"},
		},
		order: byTime("fecha_hora"),
		build: func(r *record, src source) interface{} {
			return &BrowserHistoryEntry{
				FechaHora: r.date("fecha_hora", "timestamp", "time", "date", "last_visit_time", "visit_time"),
				URL:       r.pick("url", "url", "link", "direccion", "uri"),
				Titulo:    r.pick("titulo", "title", "page_title", "titulo"),
				Visitas:   r.integer("visitas", "visit_count", "visits", "count"),
				Navegador: src.label,
				Fuente:    src.rel,
			}
		},
	},
	{
		name: "correos", proto: &EmailMessage{}, kind: csvAll,
		sources: []source{
			{rel: "apps/gmail/gmail_messages.csv", label: "Gmail"},
			{rel: "apps/email/email_messages.csv", label: "Email"},
		},
		order: byTime("fecha_hora"),
		build: func(r *record, src source) interface{} {
			return &EmailMessage{
				FechaHora:     r.date("fecha_hora", "date", "fecha", "sent_time", "timestamp"),
				Remitente:     r.pick("remitente", "from", "remitente", "sender"),
				Destinatarios: r.pick("destinatarios", "to", "destinatario", "destinatarios"),
				CC:            r.pick("cc", "cc", "copia"),
				Asunto:        r.pick("asunto", "subject", "asunto", "title"),
				Carpeta:       r.pick("carpeta", "folder", "mailbox", "buzon", "carpeta"),
				Cuenta:        r.pick("cuenta", "account", "cuenta", "email"),
				App:           src.label,
				Fuente:        src.rel,
				Cuerpo:        r.pick("cuerpo", "body", "texto", "message", "content"),
			}
		},
	},
	{
		name: "wifi_credenciales", proto: &WifiCredential{}, kind: csvFirst,
		sources: sources("wifi_credentials.csv", "wifi/wifi_credentials.csv", "system/wifi_credentials.csv"),
		order:   byTime("ultima_conexion"),
		build: func(r *record, src source) interface{} {
			return &WifiCredential{
				SSID:           r.pick("ssid", "ssid", "network_ssid", "nombre_red"),
				Password:       r.pick("password", "password", "psk", "pre_shared_key", "pass", "clave"),
				Seguridad:      r.pick("seguridad", "security", "key_mgmt", "auth_alg", "tipo_seguridad"),
				BSSID:          r.pick("bssid", "bssid", "mac", "bssid_addr"),
				UltimaConexion: r.date("ultima_conexion", "last_connected", "lastconnect", "last_seen", "fecha_ultima_conexion", "date", "timestamp"),
				Fuente:         src.rel,
			}
		},
	},
	{
		name: "gps", proto: &GpsFix{}, kind: csvFirst,
		sources: sources("location_history.csv", "gps/location_history.csv", "system/location_history.csv"),
		order:   byTime("fecha_hora"),
		build: func(r *record, src source) interface{} {
			return &GpsFix{
				FechaHora:   r.date("fecha_hora", "timestamp", "time", "date", "fecha"),
				Latitud:     r.number("latitud", "lat", "latitude", "gps_latitude"),
				Longitud:    r.number("longitud", "lon", "lng", "longitude", "gps_longitude"),
				AltitudM:    r.number("altitud_m", "alt", "altitude", "elevation"),
				PrecisionM:  r.number("precision_m", "accuracy", "prec", "precision"),
				VelocidadMS: r.number("velocidad_m_s", "speed", "velocidad"),
				Rumbo:       r.number("rumbo", "bearing", "heading", "rumbo"),
				Fuente:      src.rel,
			}
		},
	},
	{
		name: "cuentas", proto: &AccountEntry{}, kind: csvFirst,
		sources: sources("accounts.csv", "system/accounts.csv", "apps/accounts/accounts.csv"),
		order:   byTime("fecha_creacion"),
		build: func(r *record, src source) interface{} {
			return &AccountEntry{
				Tipo:          r.pick("tipo", "type", "account_type", "tipo"),
				Cuenta:        r.pick("cuenta", "name", "username", "user", "cuenta"),
				Email:         r.pick("email", "email", "mail"),
				App:           r.pick("app", "package", "app", "owner_package"),
				FechaCreacion: r.date("fecha_creacion", "created", "creation_time", "fecha_creacion"),
				UltimoAcceso:  r.date("ultimo_acceso", "last_login", "lastauth", "last_success", "ultimo_acceso"),
				Fuente:        src.rel,
			}
		},
	},
}

// TableNames lists the canonical table keys in their canonical order.
func TableNames() []string {
	var names []string
	for _, d := range definitions {
		names = append(names, d.name)
	}
	return names
}
