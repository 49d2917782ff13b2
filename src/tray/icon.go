package tray

import "fyne.io/fyne/v2"

// Icon is the tray icon resource.
var Icon = fyne.NewStaticResource("light-dict.svg", []byte(SVGContent))

// SVGContent is an open book with a highlighted word.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <!-- Pages -->
  <path d="M1.5 3.5 Q4.5 2.5 8 4 L8 13.5 Q4.5 12 1.5 13 Z" fill="none" stroke="#333333" stroke-width="1"/>
  <path d="M14.5 3.5 Q11.5 2.5 8 4 L8 13.5 Q11.5 12 14.5 13 Z" fill="none" stroke="#333333" stroke-width="1"/>

  <!-- Highlighted word -->
  <rect x="9.5" y="6" width="3.5" height="1.6" fill="#0078d4" opacity="0.8"/>

  <!-- Text lines -->
  <line x1="3" y1="6.5" x2="6.5" y2="6.5" stroke="#666666" stroke-width="0.8"/>
  <line x1="3" y1="8.5" x2="6.5" y2="8.5" stroke="#666666" stroke-width="0.8"/>
  <line x1="9.5" y1="9.5" x2="13" y2="9.5" stroke="#666666" stroke-width="0.8"/>
</svg>`
