package host

import (
	"os"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/sacredwitness/prereq/pkg/errors"
)

// Meta identifies the origin of a downloaded archive. It mirrors the
// [General] section of the "<archive>.meta" companion file.
type Meta struct {
	Game   string
	ModID  int
	FileID int
}

// MetaPath returns the companion file path for an archive.
func MetaPath(archive string) string { return archive + ".meta" }

// ReadMeta reads the companion .meta file of an archive. It returns a nil
// Meta and no error when the companion file does not exist: archives placed
// manually simply have no origin.
func ReadMeta(archive string) (*Meta, error) {
	path := MetaPath(archive)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMeta, err, "read %s", path)
	}

	sec := f.Section("General")
	m := &Meta{
		Game:   sec.Key("gameName").String(),
		ModID:  sec.Key("modID").MustInt(0),
		FileID: sec.Key("fileID").MustInt(0),
	}
	if m.Game == "" || m.ModID <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidMeta, "%s has no usable origin", path)
	}
	return m, nil
}

// WriteMeta writes the companion .meta file for an archive, so the archive
// is recognized by the mod manager and by later ownership scans.
func WriteMeta(archive string, m Meta) error {
	if err := errors.ValidateGameSlug(m.Game); err != nil {
		return err
	}
	if err := errors.ValidateModID(m.ModID); err != nil {
		return err
	}

	f := ini.Empty()
	sec := f.Section("General")
	sec.Key("gameName").SetValue(m.Game)
	sec.Key("modID").SetValue(strconv.Itoa(m.ModID))
	sec.Key("fileID").SetValue(strconv.Itoa(m.FileID))

	if err := f.SaveTo(MetaPath(archive)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMeta, err, "write %s", MetaPath(archive))
	}
	return nil
}
