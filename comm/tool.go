package comm

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/panjf2000/gnet/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/aaronwong1989/goparcel/comm/logging"
)

var log = logging.GetDefaultLogger()

// PeekBytes 查看但不消费一定字节数的数据，缓冲区数据不足时返回nil
func PeekBytes(c gnet.Conn, bytes int) []byte {
	if c.InboundBuffered() < bytes {
		return nil
	}
	frame, err := c.Peek(bytes)
	if err != nil {
		log.Errorf("[%-9s] peek error: %v", "OnTraffic", err)
		return nil
	}
	return frame
}

// TakeBytes 消费一定字节数的数据，返回的切片为拷贝，可以跨 goroutine 使用
func TakeBytes(c gnet.Conn, bytes int) []byte {
	frame := PeekBytes(c, bytes)
	if frame == nil {
		return nil
	}
	out := make([]byte, bytes)
	copy(out, frame)
	_, err := c.Discard(bytes)
	if err != nil {
		log.Errorf("[%-9s] decode error: %v", "OnTraffic", err)
		return nil
	}
	return out
}

// Ucs2Encode Encode to UCS2 (UTF-16BE, no BOM).
func Ucs2Encode(s string) ([]byte, error) {
	e := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	ucs, _, err := transform.Bytes(e.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return ucs, nil
}

// Ucs2Decode Decode from UCS2 (UTF-16BE, no BOM).
func Ucs2Decode(ucs2 []byte) (string, error) {
	e := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	bts, _, err := transform.Bytes(e.NewDecoder(), ucs2)
	if err != nil {
		return "", err
	}
	return string(bts), nil
}

func LogHex(level logging.Level, model string, bts []byte) {
	if level < logging.GetDefaultLevel() {
		return
	}
	msg := fmt.Sprintf("[OnTraffic] Hex %s: %x", model, bts)
	if level == logging.DebugLevel {
		log.Debugf("%s", msg)
	} else if level == logging.ErrorLevel {
		log.Errorf("%s", msg)
	} else if level == logging.WarnLevel {
		log.Warnf("%s", msg)
	} else {
		log.Infof("%s", msg)
	}
}

// SavePid 在程序执行的当前目录生成pid文件
func SavePid(f string) string {
	pid := fmt.Sprintf("%d", os.Getpid())
	file, err := os.OpenFile(f, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		log.Errorf("%v", err)
		return pid
	}

	writer := bufio.NewWriter(file)
	_, _ = writer.WriteString(pid)
	defer func(file *os.File, writer *bufio.Writer) {
		_ = writer.Flush()
		_ = file.Close()
	}(file, writer)

	return pid
}

// StartMonitor 开启pprof，监听请求
func StartMonitor(port int) {
	go func() {
		addr := strconv.Itoa(port + 1)
		log.Infof("[Pprof    ] http://localhost:%s/debug/pprof/", addr)
		if err := http.ListenAndServe(":"+addr, nil); err != nil {
			log.Infof("start pprof failed on %s", addr)
		}
	}()
}
