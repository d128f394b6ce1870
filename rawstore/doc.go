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

// Package rawstore holds the unmodified artifacts of an acquisition.
//
// # The raw store format
//
// The raw store implements the following conventions:
//   - The raw store is a folder containing an item.db file and one folder per category, created with the store.
//   - Categories are logical, system, apps, media, images and databases.
//   - Artifacts are stored byte for byte as streamed from the device, never rewritten.
//   - The item.db file is the custody index. It contains one element per stored file in jsonlite format.
//   - Elements are valid STIX 2.1 Observable Objects where applicable.
//   - Files are referenced by element attributes ending in _path, e.g. export_path and stdout_path.
//   - File elements carry MD5, SHA-1 and SHA-256 hashes computed while the file was written.
//   - The acquisition_report.json file lists the outcome of every declared artifact.
//
// # Structure
//
// An example directory structure for a raw store:
//
//	case_001/raw/
//	├── logical
//	│   ├── contacts.txt
//	│   ├── sms.txt
//	│   └── ...
//	├── system
//	│   ├── dumpsys_wifi.txt
//	│   └── ...
//	├── apps
//	│   └── whatsapp
//	│       └── msgstore.db
//	├── media
//	│   └── DCIM.tar
//	├── acquisition_report.json
//	└── item.db
package rawstore
