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
	"fmt"
	"strings"
)

type sheetMeta struct {
	name        string
	description string
}

var artifactMeta = map[string]sheetMeta{
	"sms":                   {"SMS_MMS", "Mensajes SMS/MMS extraídos del dispositivo."},
	"contactos":             {"CONTACTOS", "Contactos de agenda telefónica."},
	"llamadas":              {"LLAMADAS", "Registro de llamadas entrantes/salientes/perdidas."},
	"calendario":            {"CALENDARIO", "Eventos de calendario asociados a cuentas del dispositivo."},
	"whatsapp_mensajes":     {"WHATSAPP_MSG", "Mensajes de chats de WhatsApp."},
	"whatsapp_contactos":    {"WHATSAPP_CTS", "Contactos / chats de WhatsApp vinculados."},
	"exif_media":            {"IMAGENES_EXIF", "Inventario de imágenes/multimedia con metadatos EXIF/GPS."},
	"descargas":             {"DESCARGAS", "Registros del provider de descargas de Android."},
	"historial_navegadores": {"HIST_NAVEGADORES", "Historial de navegación de los navegadores instalados."},
	"correos":               {"CORREOS", "Correos electrónicos extraídos de los clientes de correo."},
	"wifi_credenciales":     {"WIFI", "Redes WiFi conocidas / configuraciones de red."},
	"gps":                   {"UBICACION", "Registros relacionados con ubicación (GPS / network location)."},
	"cuentas":               {"CUENTAS", "Cuentas configuradas en el dispositivo."},
}

// SheetMeta returns the sheet name and description of a table. Unknown
// tables get the upper-cased name and a generic description.
func SheetMeta(table string) (name, description string) {
	if meta, ok := artifactMeta[table]; ok {
		return meta.name, meta.description
	}
	return strings.ToUpper(table), fmt.Sprintf("Artefacto '%s' extraído del dispositivo.", table)
}
