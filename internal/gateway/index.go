package gateway

import "net/http"

// indexHTML is the minimal built-in UI: connect, start/stop, show the
// latest estimate.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>BPM Tracker</title>
  <style>
    body { font-family: sans-serif; text-align: center; margin-top: 4em; background: #111; color: #eee; }
    #bpm { font-size: 5em; margin: 0.3em; }
    #bpm.on-target { color: #4caf50; }
    button { font-size: 1.2em; padding: 0.4em 1.5em; margin: 0.3em; }
  </style>
</head>
<body>
  <h1>BPM Tracker</h1>
  <div id="bpm">--</div>
  <div id="status">disconnected</div>
  <button onclick="cmd('start')">Start</button>
  <button onclick="cmd('stop')">Stop</button>
  <script>
    const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    const bpmEl = document.getElementById('bpm');
    const statusEl = document.getElementById('status');
    ws.onopen = () => { statusEl.textContent = 'connected'; };
    ws.onclose = () => { statusEl.textContent = 'disconnected'; };
    ws.onmessage = (msg) => {
      const env = JSON.parse(msg.data);
      if (env.event === 'bpm_update') {
        bpmEl.textContent = env.payload.bpm.toFixed(1);
        bpmEl.className = env.payload.is_target ? 'on-target' : '';
      } else if (env.event === 'status') {
        statusEl.textContent = env.payload.is_running ? 'running' : 'stopped';
      } else if (env.event === 'start_ack' || env.event === 'stop_ack') {
        statusEl.textContent = env.payload.success ? (env.event === 'start_ack' ? 'running' : 'stopped') : env.payload.error;
      }
    };
    function cmd(event) { ws.send(JSON.stringify({event: event})); }
  </script>
</body>
</html>
`

// IndexHandler serves the built-in UI page.
func IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(indexHTML))
	}
}
