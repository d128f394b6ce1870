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

// Unknown is the label of codes missing from a code table.
const Unknown = "DESCONOCIDO"

// CodeTable maps raw numeric codes to labels.
type CodeTable map[string]string

// Label returns the label for code or Unknown.
func (c CodeTable) Label(code string) string {
	if label, ok := c[code]; ok {
		return label
	}
	return Unknown
}

// CallTypes labels CallLog.Calls.TYPE.
var CallTypes = CodeTable{
	"1": "ENTRANTE",
	"2": "SALIENTE",
	"3": "PERDIDA",
	"4": "BUZON_VOZ",
	"5": "RECHAZADA",
	"6": "BLOQUEADA",
	"7": "RESPONDIDA_EXTERNAMENTE",
}

// SmsTypes labels Telephony.Sms.TYPE.
var SmsTypes = CodeTable{
	"1": "RECIBIDO (INBOX)",
	"2": "ENVIADO (SENT)",
	"3": "BORRADOR (DRAFT)",
	"4": "OUTBOX",
	"5": "ENVIANDO",
	"6": "ENVIADO_FALLIDO",
}

// PhoneTypes labels CommonDataKinds.Phone.TYPE.
var PhoneTypes = CodeTable{
	"1": "DOMICILIO",
	"2": "MOVIL",
	"3": "TRABAJO",
	"4": "TRABAJO_FAX",
	"5": "DOMICILIO_FAX",
	"7": "OTRO",
}
