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

package catalog

import (
	"github.com/forensicanalysis/androidcollector/config"
)

func query(category Category, id, dest string, enabled bool, commands ...string) ArtifactSpec {
	return NewArtifactSpec(id, category, LogicalQuery, dest, commands...).WithEnabled(enabled)
}

func file(category Category, id, dest string, enabled bool, paths ...string) ArtifactSpec {
	return NewArtifactSpec(id, category, SingleFile, dest, paths...).WithEnabled(enabled)
}

func archive(category Category, id, dest string, enabled bool, dirs ...string) ArtifactSpec {
	return NewArtifactSpec(id, category, DirectoryArchive, dest, dirs...).WithEnabled(enabled)
}

// userDataPaths returns the private data locations of a package for the
// primary user.
func userDataPaths(pkg, rel string) []string {
	return []string{"/data/data/" + pkg + rel, "/data/user/0/" + pkg + rel}
}

func providerSpecs(o config.Options) []ArtifactSpec {
	return []ArtifactSpec{
		query(Logical, "contacts", "contacts.txt", o.Contacts,
			"content query --uri content://contacts/phones",
			"content query --uri content://com.android.contacts/data/phones"),
		query(Logical, "calllog", "calllog.txt", o.CallLog,
			"content query --uri content://call_log/calls"),
		query(Logical, "sms", "sms.txt", o.SMS,
			"content query --uri content://sms/"),
		query(Logical, "calendar_events", "calendar_events.txt", o.Calendar,
			"content query --uri content://com.android.calendar/events"),
		query(Logical, "downloads", "downloads.txt", o.Downloads,
			"content query --uri content://downloads/public_downloads"),
		query(Logical, "chrome_bookmarks", "chrome_bookmarks.txt", o.BrowserProviders,
			"content query --uri content://com.android.chrome.browser/bookmarks"),
		query(Logical, "browser_bookmarks", "browser_bookmarks.txt", o.BrowserProviders,
			"content query --uri content://browser/bookmarks"),
	}
}

func systemSpecs(o config.Options) []ArtifactSpec {
	return []ArtifactSpec{
		query(System, "dumpsys_location", "dumpsys_location.txt", o.SystemDumps, "dumpsys location"),
		query(System, "dumpsys_account", "dumpsys_account.txt", o.SystemDumps, "dumpsys account"),
		query(System, "dumpsys_user", "dumpsys_user.txt", o.SystemDumps, "dumpsys user"),
		query(System, "settings_system", "settings_system.txt", o.SystemDumps, "settings list system"),
		query(System, "settings_secure", "settings_secure.txt", o.SystemDumps, "settings list secure"),
		query(System, "settings_global", "settings_global.txt", o.SystemDumps, "settings list global"),
		query(System, "processes", "ps_A.txt", o.SystemDumps, "ps -A", "ps"),
		query(System, "top", "top_n1.txt", o.SystemDumps, "top -n 1 -b"),
		query(System, "dumpsys_activity_processes", "dumpsys_activity_processes.txt", o.SystemDumps, "dumpsys activity processes"),
		query(System, "dumpsys_usagestats", "dumpsys_usagestats.txt", o.SystemDumps, "dumpsys usagestats"),
		query(System, "dumpsys_batterystats", "dumpsys_batterystats.txt", o.SystemDumps, "dumpsys batterystats"),
		query(System, "dumpsys_notification", "dumpsys_notification.txt", o.SystemDumps, "dumpsys notification --noredact", "dumpsys notification"),
		query(System, "getprop", "getprop.txt", o.SystemDumps, "getprop"),
		query(System, "uptime", "uptime.txt", o.SystemDumps, "uptime"),
		query(System, "device_date", "device_date.txt", o.SystemDumps, "date"),

		query(System, "dumpsys_wifi", "dumpsys_wifi.txt", o.Network, "dumpsys wifi"),
		query(System, "ip_addr", "ip_addr.txt", o.Network, "ip addr"),
		query(System, "ip_route", "ip_route.txt", o.Network, "ip route"),
		query(System, "netcfg", "netcfg.txt", o.Network, "netcfg"),
		query(System, "dumpsys_connectivity", "dumpsys_connectivity.txt", o.Network, "dumpsys connectivity"),
		query(System, "dumpsys_netstats", "dumpsys_netstats.txt", o.Network, "dumpsys netstats"),
		query(System, "dumpsys_telephony_registry", "dumpsys_telephony_registry.txt", o.Network, "dumpsys telephony.registry"),

		query(System, "logcat", "logcat_dump.txt", o.Logcat, "logcat -d -b all -v threadtime", "logcat -d"),
		query(System, "bugreport", "bugreport.zip", o.Bugreport, "bugreportz -s").
			WithConfirmation().
			WithDescription("full bugreport zip, takes several minutes"),
		query(Logical, "adb_backup", "backup_all.ab", o.AdbBackup, "bu backup -apk -shared -all").
			WithConfirmation().
			WithDescription("legacy adb backup, has to be confirmed on the device"),

		query(System, "pm_list_packages", "pm_list_packages_fU.txt", o.Packages, "pm list packages -f -U", "pm list packages -f"),
		query(System, "dumpsys_package", "dumpsys_package.txt", o.Packages, "dumpsys package"),
	}
}

func mediaSpecs(o config.Options) []ArtifactSpec {
	var specs []ArtifactSpec
	for _, dir := range []string{"DCIM", "Pictures", "Movies", "Download", "Documents"} {
		specs = append(specs, archive(Media, "media_"+dir, dir+".tar", o.Media, "/sdcard/"+dir, "/storage/emulated/0/"+dir))
	}
	return specs
}

func externalWhatsAppSpecs(o config.Options) []ArtifactSpec {
	return []ArtifactSpec{
		archive(Apps, "whatsapp_backups", "whatsapp/Databases.tar", o.WhatsApp,
			"/sdcard/Android/media/com.whatsapp/WhatsApp/Databases",
			"/sdcard/WhatsApp/Databases"),
		archive(Apps, "whatsapp_media", "whatsapp/Media.tar", o.WhatsApp && o.Media,
			"/sdcard/Android/media/com.whatsapp/WhatsApp/Media",
			"/sdcard/WhatsApp/Media").
			WithConfirmation(),
	}
}

func noRootSpecs(cfg config.Config) []ArtifactSpec {
	o := cfg.Artifacts
	var specs []ArtifactSpec
	specs = append(specs, providerSpecs(o)...)
	specs = append(specs, systemSpecs(o)...)
	specs = append(specs, externalWhatsAppSpecs(o)...)
	specs = append(specs, mediaSpecs(o)...)
	return specs
}

func rootSpecs(cfg config.Config) []ArtifactSpec {
	o := cfg.Artifacts
	var specs []ArtifactSpec
	specs = append(specs, providerSpecs(o)...)
	specs = append(specs, systemSpecs(o)...)

	specs = append(specs,
		file(Databases, "contacts_db", "contacts2.db", o.CoreDatabases && o.Contacts,
			userDataPaths("com.android.providers.contacts", "/databases/contacts2.db")...),
		file(Databases, "calllog_db", "calllog.db", o.CoreDatabases && o.CallLog,
			append(userDataPaths("com.android.providers.contacts", "/databases/calllog.db"),
				userDataPaths("com.android.providers.calllog", "/databases/calllog.db")...)...),
		file(Databases, "sms_db", "mmssms.db", o.CoreDatabases && o.SMS,
			append(userDataPaths("com.android.providers.telephony", "/databases/mmssms.db"),
				"/data/user_de/0/com.android.providers.telephony/databases/mmssms.db")...),
		file(Databases, "calendar_db", "calendar.db", o.CoreDatabases && o.Calendar,
			userDataPaths("com.android.providers.calendar", "/databases/calendar.db")...),
		file(Databases, "accounts_db", "accounts_ce.db", o.CoreDatabases,
			"/data/system_ce/0/accounts_ce.db", "/data/system/users/0/accounts.db"),

		archive(Databases, "gmail_dbs", "gmail_dbs.tar", o.Gmail,
			userDataPaths("com.google.android.gm", "/databases")...),
		file(Databases, "chrome_history", "chrome_History", o.Chrome,
			userDataPaths("com.android.chrome", "/app_chrome/Default/History")...),
		file(Databases, "chrome_favicons", "chrome_Favicons", o.Chrome,
			userDataPaths("com.android.chrome", "/app_chrome/Default/Favicons")...),

		archive(System, "wifi_misc", "wifi_misc.tar", o.WifiFiles,
			"/data/misc/apexdata/com.android.wifi", "/data/misc/wifi"),
		archive(System, "location_misc", "location_misc.tar", o.WifiFiles, "/data/misc/location"),
		archive(System, "netstats", "netstats.tar", o.WifiFiles, "/data/system/netstats"),
		archive(System, "usagestats", "usagestats.tar", o.UsageStats, "/data/system/usagestats"),
		file(System, "packages_xml", "packages.xml", o.Packages, "/data/system/packages.xml"),
		file(System, "packages_list", "packages.list", o.Packages, "/data/system/packages.list"),

		file(Apps, "whatsapp_msgstore", "whatsapp/msgstore.db", o.WhatsApp,
			userDataPaths("com.whatsapp", "/databases/msgstore.db")...),
		file(Apps, "whatsapp_wa", "whatsapp/wa.db", o.WhatsApp,
			userDataPaths("com.whatsapp", "/databases/wa.db")...),
		file(Apps, "whatsapp_key", "whatsapp/key", o.WhatsApp,
			userDataPaths("com.whatsapp", "/files/key")...),
	)
	specs = append(specs, externalWhatsAppSpecs(o)...)

	for _, pkg := range cfg.CriticalPackages {
		specs = append(specs, archive(Apps, "private_"+pkg, "private/"+pkg+".tar", o.PrivateAppData,
			userDataPaths(pkg, "")...))
		for _, base := range []string{"data", "obb", "media"} {
			specs = append(specs, archive(Apps, "external_"+base+"_"+pkg, "external/"+pkg+"_"+base+".tar",
				o.ExternalAppData, "/sdcard/Android/"+base+"/"+pkg))
		}
	}

	specs = append(specs, mediaSpecs(o)...)

	if len(cfg.UserdataBlockCandidates) > 0 {
		specs = append(specs, NewArtifactSpec("userdata_image", Images, BlockCopy, "userdata.img", cfg.UserdataBlockCandidates...).
			WithEnabled(o.UserdataImage).
			WithConfirmation().
			WithDescription("raw image of the userdata partition, can take hours"))
	}
	return specs
}
