package fetcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/choropleth/internal/model"
)

// miniFTPServer is a minimal FTP server for testing.
// It supports just enough of the FTP protocol for Download and Exists.
type miniFTPServer struct {
	listener net.Listener
	fileData map[string]string // path -> content
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

func newMiniFTPServer(t *testing.T, files map[string]string) *miniFTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &miniFTPServer{
		listener: ln,
		fileData: files,
	}

	s.wg.Add(1)
	go s.serve(t)

	return s
}

func (s *miniFTPServer) addr() string {
	return s.listener.Addr().String()
}

func (s *miniFTPServer) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.listener.Close() //nolint:errcheck
	s.wg.Wait()
}

func (s *miniFTPServer) serve(t *testing.T) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handleConn(t, conn)
	}
}

func (s *miniFTPServer) handleConn(_ *testing.T, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close() //nolint:errcheck

	conn.SetDeadline(time.Now().Add(10 * time.Second)) //nolint:errcheck

	writer := bufio.NewWriter(conn)
	reader := bufio.NewReader(conn)

	// Send greeting
	fmt.Fprintf(writer, "220 Mini FTP Server ready\r\n") //nolint:errcheck
	writer.Flush()                                       //nolint:errcheck

	var dataListener net.Listener

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		parts := strings.SplitN(line, " ", 2)
		cmd := strings.ToUpper(parts[0])
		arg := ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch cmd {
		case "USER":
			fmt.Fprintf(writer, "230 User logged in\r\n") //nolint:errcheck
			writer.Flush()                                //nolint:errcheck

		case "PASS":
			fmt.Fprintf(writer, "230 User logged in\r\n") //nolint:errcheck
			writer.Flush()                                //nolint:errcheck

		case "FEAT":
			fmt.Fprintf(writer, "211-Features:\r\n") //nolint:errcheck
			fmt.Fprintf(writer, " UTF8\r\n")         //nolint:errcheck
			fmt.Fprintf(writer, "211 End\r\n")       //nolint:errcheck
			writer.Flush()                           //nolint:errcheck

		case "TYPE":
			fmt.Fprintf(writer, "200 Type set to %s\r\n", arg) //nolint:errcheck
			writer.Flush()                                     //nolint:errcheck

		case "EPSV":
			// Open a data connection listener
			var err error
			dataListener, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				fmt.Fprintf(writer, "425 Can't open data connection\r\n") //nolint:errcheck
				writer.Flush()                                            //nolint:errcheck
				continue
			}
			port := dataListener.Addr().(*net.TCPAddr).Port
			fmt.Fprintf(writer, "229 Entering Extended Passive Mode (|||%d|)\r\n", port) //nolint:errcheck
			writer.Flush()                                                               //nolint:errcheck

		case "PASV":
			// Open a data connection listener
			var err error
			dataListener, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				fmt.Fprintf(writer, "425 Can't open data connection\r\n") //nolint:errcheck
				writer.Flush()                                            //nolint:errcheck
				continue
			}
			addr := dataListener.Addr().(*net.TCPAddr)
			p1 := addr.Port / 256
			p2 := addr.Port % 256
			fmt.Fprintf(writer, "227 Entering Passive Mode (127,0,0,1,%d,%d)\r\n", p1, p2) //nolint:errcheck
			writer.Flush()                                                                 //nolint:errcheck

		case "RETR":
			if dataListener == nil {
				fmt.Fprintf(writer, "425 Use PASV first\r\n") //nolint:errcheck
				writer.Flush()                                //nolint:errcheck
				continue
			}

			content, ok := s.fileData[arg]
			if !ok {
				fmt.Fprintf(writer, "550 File not found\r\n") //nolint:errcheck
				writer.Flush()                                //nolint:errcheck
				dataListener.Close()                          //nolint:errcheck
				dataListener = nil
				continue
			}

			fmt.Fprintf(writer, "150 Opening data connection\r\n") //nolint:errcheck
			writer.Flush()                                         //nolint:errcheck

			dataConn, err := dataListener.Accept()
			if err != nil {
				fmt.Fprintf(writer, "425 Can't open data connection\r\n") //nolint:errcheck
				writer.Flush()                                            //nolint:errcheck
				continue
			}

			io.WriteString(dataConn, content) //nolint:errcheck
			dataConn.Close()                  //nolint:errcheck
			dataListener.Close()              //nolint:errcheck
			dataListener = nil

			fmt.Fprintf(writer, "226 Transfer complete\r\n") //nolint:errcheck
			writer.Flush()                                   //nolint:errcheck

		case "SIZE":
			content, ok := s.fileData[arg]
			if !ok {
				fmt.Fprintf(writer, "550 File not found\r\n") //nolint:errcheck
			} else {
				fmt.Fprintf(writer, "213 %d\r\n", len(content)) //nolint:errcheck
			}
			writer.Flush() //nolint:errcheck

		case "QUIT":
			fmt.Fprintf(writer, "221 Goodbye\r\n") //nolint:errcheck
			writer.Flush()                         //nolint:errcheck
			return

		case "OPTS":
			fmt.Fprintf(writer, "200 OK\r\n") //nolint:errcheck
			writer.Flush()                    //nolint:errcheck

		default:
			fmt.Fprintf(writer, "502 Command not implemented\r\n") //nolint:errcheck
			writer.Flush()                                         //nolint:errcheck
		}
	}
}

func TestParseFTPURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{
			name:     "standard ftp url",
			url:      "ftp://ftp.example.com/pub/datasets/population.csv",
			wantHost: "ftp.example.com:21",
			wantPath: "/pub/datasets/population.csv",
		},
		{
			name:     "ftp url with port",
			url:      "ftp://ftp.example.com:2121/gdp.csv",
			wantHost: "ftp.example.com:2121",
			wantPath: "/gdp.csv",
		},
		{
			name:    "http scheme rejected",
			url:     "http://example.com/file.csv",
			wantErr: true,
		},
		{
			name:    "empty path",
			url:     "ftp://ftp.example.com",
			wantErr: true,
		},
		{
			name:    "invalid url",
			url:     "://bad",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, path, err := parseFTPURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestNewFTPFetcher_DefaultTimeout(t *testing.T) {
	f := NewFTPFetcher(FTPOptions{})
	assert.Equal(t, 30*time.Second, f.opts.Timeout)
}

func TestFTPFetcher_Download(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{
		"/datasets/population.csv": "hc-key,value\nus-ca,39000000\n",
	})
	defer srv.close()

	f := NewFTPFetcher(FTPOptions{Timeout: 5 * time.Second})

	body, err := f.Download(context.Background(), fmt.Sprintf("ftp://%s/datasets/population.csv", srv.addr()))
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hc-key,value\nus-ca,39000000\n", string(data))
}

func TestFTPFetcher_DownloadIfChanged_AlwaysChanged(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{"/gdp.csv": "hc-key,value\n"})
	defer srv.close()

	f := NewFTPFetcher(FTPOptions{Timeout: 5 * time.Second})

	body, etag, changed, err := f.DownloadIfChanged(context.Background(), fmt.Sprintf("ftp://%s/gdp.csv", srv.addr()), `"old"`)
	require.NoError(t, err)
	defer body.Close() //nolint:errcheck
	assert.True(t, changed)
	assert.Empty(t, etag)
}

func TestFTPFetcher_Download_ConnectionRefused(t *testing.T) {
	f := NewFTPFetcher(FTPOptions{Timeout: 2 * time.Second})

	_, err := f.Download(context.Background(), "ftp://127.0.0.1:19999/path/file.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp dial")
	assert.True(t, model.IsFetch(err))
}

func TestFTPFetcher_Download_FileNotFound(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{"/existing.csv": "data"})
	defer srv.close()

	f := NewFTPFetcher(FTPOptions{Timeout: 5 * time.Second})

	_, err := f.Download(context.Background(), fmt.Sprintf("ftp://%s/missing.csv", srv.addr()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp retrieve")
	assert.True(t, model.IsFetch(err))
}

func TestFTPFetcher_Exists(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{"/existing.csv": "data"})
	defer srv.close()

	f := NewFTPFetcher(FTPOptions{Timeout: 5 * time.Second})

	ok, err := f.Exists(context.Background(), fmt.Sprintf("ftp://%s/existing.csv", srv.addr()))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Exists(context.Background(), fmt.Sprintf("ftp://%s/missing.csv", srv.addr()))
	require.NoError(t, err)
	assert.False(t, ok)
}
