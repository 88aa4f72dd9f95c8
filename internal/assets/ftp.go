package assets

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

type FTPConfig struct {
	Addr     string
	User     string
	Password string
	// Dir is the remote directory holding product pictures.
	Dir     string
	Timeout time.Duration
}

// FTPStore opens one connection per operation.
type FTPStore struct {
	cfg FTPConfig
}

func NewFTPStore(cfg FTPConfig) *FTPStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &FTPStore{cfg: cfg}
}

func (s *FTPStore) Put(ctx context.Context, name string, r io.Reader) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	if err := conn.Stor(name, r); err != nil {
		return fmt.Errorf("ftp stor: %w", err)
	}
	return nil
}

func (s *FTPStore) Delete(ctx context.Context, name string) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	if err := conn.Delete(name); err != nil {
		return fmt.Errorf("ftp delete: %w", err)
	}
	return nil
}

func (s *FTPStore) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(s.cfg.Addr, ftp.DialWithTimeout(s.cfg.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %w", s.cfg.Addr, err)
	}

	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	if s.cfg.Dir != "" {
		if err := conn.ChangeDir(s.cfg.Dir); err != nil {
			conn.Quit()
			return nil, fmt.Errorf("ftp cwd %s: %w", s.cfg.Dir, err)
		}
	}
	return conn, nil
}
