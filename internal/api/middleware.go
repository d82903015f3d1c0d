package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one structured line per HTTP request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			p := req.URL.Path
			if p == "" {
				p = "/"
			}

			logrus.WithFields(logrus.Fields{
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"method":        req.Method,
				"path":          p,
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"latency_human": stop.Sub(start).String(),
				"bytes_out":     strconv.FormatInt(res.Size, 10),
				"request_id":    res.Header().Get(echo.HeaderXRequestID),
			}).Info("http request")

			return nil
		}
	}
}
