package walker

import "io/fs"

func (f *FilterSet) matchesAnyType(e *Entry) bool {
	for _, t := range f.Types {
		if matchesType(e, t) {
			return true
		}
	}
	return false
}

func matchesType(e *Entry, t EntryType) bool {
	switch t {
	case TypeDirectory:
		return e.IsDir()
	case TypeSymlink:
		return e.IsSymlink()
	case TypeFile:
		info, err := e.Metadata()
		return err == nil && info.Mode().IsRegular()
	case TypeExecutable:
		return isExecutable(e)
	case TypeEmpty:
		return isEmpty(e)
	case TypeSocket:
		return hasModeBit(e, fs.ModeSocket)
	case TypePipe:
		return hasModeBit(e, fs.ModeNamedPipe)
	case TypeBlockDevice:
		return hasModeBit(e, fs.ModeDevice) && !hasModeBit(e, fs.ModeCharDevice)
	case TypeCharDevice:
		return hasModeBit(e, fs.ModeDevice) && hasModeBit(e, fs.ModeCharDevice)
	default:
		return false
	}
}

func hasModeBit(e *Entry, bit fs.FileMode) bool {
	info, err := e.Metadata()
	if err != nil {
		return false
	}
	return info.Mode()&bit != 0
}

func isEmpty(e *Entry) bool {
	info, err := e.Metadata()
	if err != nil {
		return false
	}
	if info.IsDir() {
		entries, err := readDirNames(e.AbsPath)
		return err == nil && len(entries) == 0
	}
	return info.Size() == 0
}
