package site

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func fallbackHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler over the embedded client", t, func() {
		h := Handler(Embedded(), fallbackHandler())

		Convey("Then GET / serves index.html", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(w.Body.String(), ShouldContainSubstring, "Dice Roller")
		})

		Convey("And assets are served by name", func() {
			req := httptest.NewRequest(http.MethodGet, "/app.js", http.NoBody)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "/api/roll/single")
		})

		Convey("And unknown paths reach the fallback", func() {
			req := httptest.NewRequest(http.MethodGet, "/nope.txt", http.NoBody)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusTeapot)
		})

		Convey("And non-read methods reach the fallback", func() {
			req := httptest.NewRequest(http.MethodPost, "/app.js", http.NoBody)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusTeapot)
		})
	})
}

func TestFS(t *testing.T) {
	Convey("Given a directory on disk", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o600), ShouldBeNil)
		So(os.Mkdir(filepath.Join(dir, "empty"), 0o700), ShouldBeNil)

		Convey("Then FS serves it", func() {
			files, onDisk := FS(dir)
			So(onDisk, ShouldBeTrue)

			h := Handler(files, fallbackHandler())
			req := httptest.NewRequest(http.MethodGet, "/hello.txt", http.NoBody)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, "hi")
		})

		Convey("And a directory without index.html reaches the fallback", func() {
			files, _ := FS(dir)
			h := Handler(files, fallbackHandler())
			req := httptest.NewRequest(http.MethodGet, "/empty/", http.NoBody)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusTeapot)
		})
	})

	Convey("Given a missing directory", t, func() {
		_, onDisk := FS(filepath.Join(t.TempDir(), "missing"))
		So(onDisk, ShouldBeFalse)
	})

	Convey("Given a regular file", t, func() {
		path := filepath.Join(t.TempDir(), "file")
		So(os.WriteFile(path, nil, 0o600), ShouldBeNil)

		_, err := Dir(path)
		So(err, ShouldEqual, ErrNotDirectory)
	})
}
