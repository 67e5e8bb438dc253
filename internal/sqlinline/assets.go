package sqlinline

const QSelectAssetByID = `--sql a17c3e85-4b9f-4d26-8a01-f53e9c6b2d48
select
  id,
  kind,
  bucket,
  path,
  coalesce(mime, ''),
  size_bytes,
  coalesce(width, 0),
  coalesce(height, 0),
  created_at
from assets
where id = $1::uuid
limit 1;
`

const QInsertRenderAsset = `--sql f92b51d0-6ac7-4e13-b8d5-04a6c97e31fb
insert into assets(id, kind, bucket, path, mime, size_bytes, width, height, created_at)
values (gen_random_uuid(), 'render', $1::text, $2::text, $3::text, $4::bigint, $5::int, $6::int, now())
returning id;
`
