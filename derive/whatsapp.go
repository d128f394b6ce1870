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
	"context"

	"github.com/pkg/errors"
)

const (
	// messages is the table of msgstore.db before 2022
	legacyMessagesQuery = `SELECT key_remote_jid, key_from_me, data, timestamp, media_wa_type, status
FROM messages ORDER BY timestamp ASC`
	// message references its chat and the chat's jid by row id
	messagesQuery = `SELECT jid.raw_string, message.from_me, message.text_data, message.timestamp,
message.message_type, message.status
FROM message
LEFT JOIN chat ON message.chat_row_id = chat._id
LEFT JOIN jid ON chat.jid_row_id = jid._id
ORDER BY message.timestamp ASC`
	contactsQuery = "SELECT jid, display_name, number, status FROM "
)

var (
	messagesHeader = []string{"chat_jid", "from_me", "text", "timestamp_ms", "media_type", "status"}
	contactsHeader = []string{"jid", "display_name", "number", "status"}
)

// WhatsAppMessages converts msgstore.db into a messages CSV.
func (d *Deriver) WhatsAppMessages(ctx context.Context) (int, error) {
	conn, err := d.openEvidence(ctx, MsgstoreDB)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	names, err := tables(conn)
	if err != nil {
		return 0, err
	}
	var q string
	switch {
	case names["messages"]:
		q = legacyMessagesQuery
	case names["message"] && names["chat"] && names["jid"]:
		q = messagesQuery
	default:
		return 0, errors.Wrap(ErrSchema, "msgstore.db has no message table, it may be encrypted")
	}

	rows, err := query(conn, q)
	if err != nil {
		return 0, errors.Wrap(err, "read messages")
	}
	return len(rows), d.writeCSV(WhatsAppMessagesCSV, "whatsapp_messages", []string{MsgstoreDB}, messagesHeader, rows)
}

// WhatsAppContacts converts wa.db into a contacts CSV.
func (d *Deriver) WhatsAppContacts(ctx context.Context) (int, error) {
	conn, err := d.openEvidence(ctx, ContactsDB)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	names, err := tables(conn)
	if err != nil {
		return 0, err
	}
	var table string
	switch {
	case names["wa_contacts"]:
		table = "wa_contacts"
	case names["contacts"]:
		table = "contacts"
	default:
		return 0, errors.Wrap(ErrSchema, "wa.db has no contacts table")
	}

	rows, err := query(conn, contactsQuery+table)
	if err != nil {
		return 0, errors.Wrap(err, "read contacts")
	}
	return len(rows), d.writeCSV(WhatsAppContactsCSV, "whatsapp_contacts", []string{ContactsDB}, contactsHeader, rows)
}
