package listing

import (
	"io/fs"
	"testing"
	"time"

	"github.com/sdejongh/ftpwatch/pkg/models"
)

func TestNormalize_FTP(t *testing.T) {
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := FTPEntry{
		Name:   "report.csv",
		Type:   models.TypeFile,
		Size:   2048,
		Date:   date,
		Rights: models.Rights{User: "rw", Group: "r", Other: "r"},
		Owner:  "ftp",
		Group:  "ftp",
	}

	entry := Normalize(raw, "/incoming", false)

	if entry.Path != "/incoming/report.csv" {
		t.Errorf("Path = %s, want /incoming/report.csv", entry.Path)
	}
	if !entry.ModifyTime.Equal(date) {
		t.Errorf("ModifyTime = %v, want %v", entry.ModifyTime, date)
	}
	if !entry.AccessTime.IsZero() {
		t.Errorf("AccessTime = %v, want zero for FTP", entry.AccessTime)
	}
	if entry.Size != 2048 {
		t.Errorf("Size = %d, want 2048", entry.Size)
	}
	if entry.Owner != "ftp" || entry.Rights.User != "rw" {
		t.Errorf("ownership fields not carried through: %+v", entry)
	}
}

func TestNormalize_SFTP(t *testing.T) {
	raw := SFTPEntry{
		Name:       "photo.jpg",
		Type:       models.TypeFile,
		Size:       10,
		ModifyTime: 1700000000123,
		AccessTime: 1700000005000,
		LongName:   "-rw-r--r--    1 1000     1000           10 Nov 14 22:13 photo.jpg",
	}

	entry := Normalize(raw, "/home/user/", false)

	if entry.Path != "/home/user/photo.jpg" {
		t.Errorf("Path = %s, want /home/user/photo.jpg", entry.Path)
	}
	if entry.ModifyTime.UnixMilli() != 1700000000123 {
		t.Errorf("ModifyTime = %d ms, want 1700000000123", entry.ModifyTime.UnixMilli())
	}
	if entry.AccessTime.UnixMilli() != 1700000005000 {
		t.Errorf("AccessTime = %d ms, want 1700000005000", entry.AccessTime.UnixMilli())
	}
	if entry.LongName == "" {
		t.Error("LongName should be carried through")
	}
}

func TestNormalize_SFTPWithoutAccessTime(t *testing.T) {
	raw := SFTPEntry{Name: "photo.jpg", Type: models.TypeFile, ModifyTime: 1700000000123}

	entry := Normalize(raw, "/home/user", false)

	if !entry.AccessTime.IsZero() {
		t.Errorf("AccessTime = %v, want zero when the server reports none", entry.AccessTime)
	}
	if entry.ModifyTime.UnixMilli() != 1700000000123 {
		t.Errorf("ModifyTime = %d ms, want 1700000000123", entry.ModifyTime.UnixMilli())
	}
}

func TestNormalize_SingleItem(t *testing.T) {
	raw := SFTPEntry{Name: "hosts", Type: models.TypeFile, ModifyTime: 1}

	entry := Normalize(raw, "/etc/hosts", true)

	if entry.Path != "/etc/hosts" {
		t.Errorf("Path = %s, want the watched path unchanged", entry.Path)
	}
	if entry.Name != "hosts" {
		t.Errorf("Name = %s, want hosts", entry.Name)
	}
}

func TestNormalize_OtherTypesPreserved(t *testing.T) {
	entry := Normalize(FTPEntry{Name: "link", Type: models.TypeSymlink, Target: "/srv/data"}, "/", false)

	if entry.Type != models.TypeSymlink {
		t.Errorf("Type = %s, want l", entry.Type)
	}
	if entry.Kind() != models.KindOther {
		t.Errorf("Kind = %s, want other", entry.Kind())
	}
	if entry.Path != "/link" {
		t.Errorf("Path = %s, want /link", entry.Path)
	}
	if entry.Target != "/srv/data" {
		t.Errorf("Target = %s, want /srv/data", entry.Target)
	}
}

// An FTP entry and an SFTP entry describing the same file must agree on
// every field the diff reads.
func TestNormalize_RoundTripAcrossProtocols(t *testing.T) {
	mtime := time.Date(2023, 11, 5, 8, 30, 15, 250*int(time.Millisecond), time.UTC)

	ftpEntry := Normalize(FTPEntry{
		Name: "a.txt",
		Type: models.TypeFile,
		Size: 42,
		Date: mtime,
	}, "/watch", false)

	sftpEntry := Normalize(SFTPEntry{
		Name:       "a.txt",
		Type:       models.TypeFile,
		Size:       42,
		ModifyTime: mtime.UnixMilli(),
	}, "/watch", false)

	if ftpEntry.Path != sftpEntry.Path {
		t.Errorf("Path differs: ftp=%s sftp=%s", ftpEntry.Path, sftpEntry.Path)
	}
	if ftpEntry.Type != sftpEntry.Type {
		t.Errorf("Type differs: ftp=%s sftp=%s", ftpEntry.Type, sftpEntry.Type)
	}
	if ftpEntry.ModifyMillis() != sftpEntry.ModifyMillis() {
		t.Errorf("ModifyTime differs: ftp=%d sftp=%d", ftpEntry.ModifyMillis(), sftpEntry.ModifyMillis())
	}
	if ftpEntry.Size != sftpEntry.Size {
		t.Errorf("Size differs: ftp=%d sftp=%d", ftpEntry.Size, sftpEntry.Size)
	}
}

func TestNormalizeAll(t *testing.T) {
	raws := []RawEntry{
		FTPEntry{Name: "a", Type: models.TypeFile},
		FTPEntry{Name: "b", Type: models.TypeDirectory},
	}

	entries := NormalizeAll(raws, "/root", false)

	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Path != "/root/a" || entries[1].Path != "/root/b" {
		t.Errorf("paths = %s, %s", entries[0].Path, entries[1].Path)
	}
}

func TestTypeFromMode(t *testing.T) {
	tests := []struct {
		name string
		mode fs.FileMode
		want models.EntryType
	}{
		{"regular", 0644, models.TypeFile},
		{"directory", fs.ModeDir | 0755, models.TypeDirectory},
		{"symlink", fs.ModeSymlink | 0777, models.TypeSymlink},
		{"pipe", fs.ModeNamedPipe, "p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeFromMode(tt.mode); got != tt.want {
				t.Errorf("TypeFromMode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRightsFromMode(t *testing.T) {
	got := RightsFromMode(0754)
	want := models.Rights{User: "rwx", Group: "rx", Other: "r"}
	if got != want {
		t.Errorf("RightsFromMode(0754) = %+v, want %+v", got, want)
	}
}
