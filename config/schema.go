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

package config

const configSchema = `{
  "type": "object",
  "properties": {
    "root": {"type": "string", "minLength": 1},
    "tier": {"enum": ["noroot", "root"]},
    "case": {"type": "string"},
    "serial": {"type": "string"},
    "adb_path": {"type": "string"},
    "command_timeout": {"type": "string", "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h))+$"},
    "block_size": {"type": "string", "pattern": "^[1-9][0-9]*[KMG]?$"},
    "confirm_heavy": {"type": "boolean"},
    "log_level": {"enum": ["trace", "debug", "info", "warning", "error"]},
    "artifacts": {
      "type": "object",
      "propertyNames": {
        "enum": [
          "contacts", "calllog", "sms", "calendar", "downloads", "browser_providers",
          "system_dumps", "network", "logcat", "bugreport", "adb_backup", "packages", "apks",
          "core_databases", "gmail", "chrome", "wifi_files", "usagestats", "private_app_data",
          "external_app_data", "whatsapp", "media", "exif_inventory", "userdata_image"
        ]
      },
      "additionalProperties": {"type": "boolean"}
    },
    "critical_packages": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "userdata_block_candidates": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "extra_artifacts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "category", "mode", "dest", "candidates"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "category": {"enum": ["logical", "system", "apps", "media", "images", "databases"]},
          "mode": {"enum": ["single-file-stream", "directory-archive-stream", "logical-query", "block-copy"]},
          "dest": {"type": "string", "minLength": 1},
          "candidates": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "requires_confirmation": {"type": "boolean"},
          "description": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`
