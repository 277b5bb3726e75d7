package notify

const digestHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>IDX {{.Category.Name}} digest – {{.RunDate}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 680px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #1f3a5f 0%, #2b2f36 100%);
      color: #ffffff;
    }

    .category {
      font-size: 22px;
      font-weight: 700;
      letter-spacing: 0.05em;
      text-transform: uppercase;
      margin-bottom: 4px;
    }

    .subtitle {
      font-size: 14px;
      opacity: 0.9;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 12px;
    }

    .record {
      margin-bottom: 16px;
      border: 1px solid #e5e7eb;
      border-radius: 6px;
      padding: 12px;
    }

    .symbol {
      font-size: 15px;
      font-weight: 700;
      margin-bottom: 8px;
    }

    .field-row {
      display: table-row;
    }

    .field-name {
      display: table-cell;
      padding: 2px 12px 2px 0;
      font-size: 12px;
      color: #6b7280;
      white-space: nowrap;
    }

    .field-value {
      display: table-cell;
      padding: 2px 0;
      font-size: 13px;
    }

    ul {
      margin: 0;
      padding-left: 18px;
      font-size: 13px;
    }

    .footer {
      padding: 12px 24px;
      border-top: 1px solid #f3f4f6;
      font-size: 11px;
      color: #9ca3af;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="category">IDX {{.Category.Name}}</div>
      <div class="subtitle">{{len .Records}} record(s) synced on {{.RunDate}} · cutoff {{.Cutoff}}</div>
    </div>

    <div class="section">
      <div class="section-title">Records</div>
      {{range .Rows}}
      <div class="record">
        <div class="symbol">{{.Symbol}}</div>
        <div style="display: table; width: 100%;">
          {{range .Fields}}
          <div class="field-row">
            <div class="field-name">{{.Name}}</div>
            <div class="field-value">{{.Value}}</div>
          </div>
          {{end}}
        </div>
      </div>
      {{end}}
    </div>

    {{if .Commentary}}
    {{if .Commentary.Summary}}
    <div class="section">
      <div class="section-title">AI Summary</div>
      <ul>
        {{range .Commentary.Summary}}<li>{{.}}</li>{{end}}
      </ul>
    </div>
    {{end}}
    {{if .Commentary.Notable}}
    <div class="section">
      <div class="section-title">Notable Actions</div>
      <ul>
        {{range .Commentary.Notable}}<li><strong>{{.Symbol}}</strong> – {{.Details}}</li>{{end}}
      </ul>
    </div>
    {{end}}
    {{end}}

    <div class="footer">
      Generated by idxca from sahamidx.com listings. Rows affected in store: {{.Affected}}.
    </div>
  </div>
</body>
</html>
`
