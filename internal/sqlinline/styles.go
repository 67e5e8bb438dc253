package sqlinline

const QSelectStyleByKey = `--sql c04a78e2-d5b1-4f96-a2c8-7e19b03d64af
select key, label, params
from styles
where key = $1::text
limit 1;
`
